package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// GetSigned returns the value of a cookie written by SetSigned.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if m.secretErr != nil {
		return "", m.secretErr
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	// base64(value).base64(hmac)
	encValue, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", ErrBadSig
	}
	if !hmac.Equal(sig, m.sign(value)) {
		return "", ErrBadSig
	}

	return string(value), nil
}

// SetSigned writes a tamper-evident cookie. The value stays readable by the client.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, ttl time.Duration) error {
	if m.secretErr != nil {
		return m.secretErr
	}

	encoded := base64.RawURLEncoding.EncodeToString([]byte(value)) +
		"." + base64.RawURLEncoding.EncodeToString(m.sign([]byte(value)))

	http.SetCookie(w, m.cookie(name, encoded, maxAge(ttl)))
	return nil
}

// GetEncrypted returns the value of a cookie written by SetEncrypted.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	if m.secretErr != nil {
		return "", m.secretErr
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", ErrDecrypt
	}
	plaintext, err := m.decrypt(data)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// SetEncrypted writes an AES-GCM encrypted cookie.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, ttl time.Duration) error {
	if m.secretErr != nil {
		return m.secretErr
	}

	ciphertext, err := m.encrypt([]byte(value))
	if err != nil {
		return err
	}

	http.SetCookie(w, m.cookie(name, base64.RawURLEncoding.EncodeToString(ciphertext), maxAge(ttl)))
	return nil
}

// SetJSON encodes value as JSON and stores it encrypted.
func (m *Manager) SetJSON(w http.ResponseWriter, name string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrDecode, err)
	}
	return m.SetEncrypted(w, name, string(data), ttl)
}

// GetJSON decrypts a cookie written by SetJSON into dest.
func (m *Manager) GetJSON(r *http.Request, name string, dest any) error {
	raw, err := m.GetEncrypted(r, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

func (m *Manager) sign(value []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(value)
	return mac.Sum(nil)
}

func (m *Manager) aead() (cipher.AEAD, error) {
	key := sha256.Sum256(m.secret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// encrypt returns nonce||ciphertext.
func (m *Manager) encrypt(plaintext []byte) ([]byte, error) {
	aead, err := m.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (m *Manager) decrypt(data []byte) ([]byte, error) {
	aead, err := m.aead()
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
