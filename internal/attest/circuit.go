package attest

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Circuit proves age >= Threshold for the age committed to in Commitment.
// Public inputs are declared first; gnark orders the public witness by declaration.
type Circuit struct {
	RecordHash frontend.Variable `gnark:",public"`
	Threshold  frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`

	Age   frontend.Variable
	Nonce frontend.Variable
}

// Define binds Commitment = MiMC(RecordHash, Age, Nonce) and Threshold <= Age
func (c *Circuit) Define(api frontend.API) error {
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.RecordHash, c.Age, c.Nonce)
	api.AssertIsEqual(hasher.Sum(), c.Commitment)

	api.AssertIsLessOrEqual(c.Threshold, c.Age)
	return nil
}
