package client

// Borsh layouts of the identity card program's accounts and instructions

const (
	registrySeed = "registry"
	recordSeed   = "record"

	ixCreateRecord       uint8 = 0
	ixSubmitVerification uint8 = 1

	// custom program error codes
	programErrRecordExists    = 0x0
	programErrAlreadyVerified = 0x1
	programErrRecordNotFound  = 0x2
	programErrInvalidProof    = 0x3

	// space reserved for a record account by the program
	recordAccountSize = 1024
)

// registryAccount lives at PDA ["registry"] and lists every record id in creation order
type registryAccount struct {
	IDs []string
}

// recordAccount lives at PDA ["record", id]
type recordAccount struct {
	Name           string
	Description    string
	Creator        [32]byte
	Timestamp      int64
	PublicValue1   uint32
	PublicValue2   uint32
	Handle         [32]byte
	IsVerified     bool
	DecryptedValue uint32
}

type createRecordArgs struct {
	Instruction  uint8
	ID           string
	Name         string
	Handle       [32]byte
	Proof        []byte
	PublicValue1 uint32
	PublicValue2 uint32
	Description  string
}

type submitVerificationArgs struct {
	Instruction uint8
	ID          string
	ClearValues []byte
	Proof       []byte
}
