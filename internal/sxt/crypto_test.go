package sxt

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, plain := range []string{"123456", "a", "密码测试", "exactly16bytes!!"} {
		encrypted, err := EncryptSecret(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, encrypted)

		decrypted, err := DecryptSecret(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted)
	}
}

// ECB 无随机量，同样的输入必须产生同样的密文，上游按此比对
func TestEncryptDeterministic(t *testing.T) {
	a, err := EncryptSecret("123456")
	require.NoError(t, err)
	b, err := EncryptSecret("123456")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncryptOutputIsBase64(t *testing.T) {
	encrypted, err := EncryptSecret("test-password")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	assert.Equal(t, 0, len(raw)%16)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := DecryptSecret("not-base64!!")
	assert.Error(t, err)
}
