package common

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLamportsToSOL(t *testing.T) {
	assert.Equal(t, "0.000005000", LamportsToSOL(5000))
	assert.Equal(t, "1.000000000", LamportsToSOL(1_000_000_000))
	assert.Equal(t, "0.000000000", LamportsToSOL(0))
}

func TestNewRecordID(t *testing.T) {
	now := time.UnixMilli(1730000000123)
	id := NewRecordID(now)

	assert.True(t, strings.HasPrefix(id, RecordIDPrefix))
	assert.Equal(t, "did-1730000000123", id)
}

func TestDIDURI(t *testing.T) {
	assert.Equal(t, "did:zama:did-1", DIDURI("zama", "did-1"))
}

func TestParseAge(t *testing.T) {
	age, err := ParseAge(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, uint32(17), age)

	for _, bad := range []string{"", "abc", "0", "121", "-3", "17.5"} {
		_, err := ParseAge(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", ShortAddress("0x1234567890abcdef"))
	assert.Equal(t, "short", ShortAddress("short"))
}

func TestQRCodePNG(t *testing.T) {
	encoded, err := QRCodePNG("did:zama:did-1", 128, qrcode.High)
	require.NoError(t, err)

	png, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
