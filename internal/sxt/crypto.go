package sxt

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"fmt"
)

// 上游约定的共享密钥，前端加密实现与此保持一致
const secretKey = "JMybKEd6L1cVpw=="

// EncryptSecret 将密码或验证码按上游要求加密：AES-128-ECB + PKCS7，Base64 输出。
// ECB 是上游平台固定的方案，标准库不提供该模式，按块手工加密。
func EncryptSecret(plain string) (string, error) {
	block, err := aes.NewCipher([]byte(secretKey))
	if err != nil {
		return "", err
	}

	src := pkcs7Pad([]byte(plain), block.BlockSize())
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += block.BlockSize() {
		block.Encrypt(dst[i:i+block.BlockSize()], src[i:i+block.BlockSize()])
	}

	return base64.StdEncoding.EncodeToString(dst), nil
}

// DecryptSecret EncryptSecret 的逆运算，管理后台查看凭据时使用
func DecryptSecret(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher([]byte(secretKey))
	if err != nil {
		return "", err
	}

	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return "", fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(raw))
	}

	dst := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(dst[i:i+block.BlockSize()], raw[i:i+block.BlockSize()])
	}

	return string(pkcs7Unpad(dst)), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > len(data) {
		return data
	}
	return data[:len(data)-padding]
}
