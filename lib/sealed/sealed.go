// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/bureau-foundation/uaconsole/lib/secret"
)

// ErrNoRecipients is returned by SealPassword without recipients.
var ErrNoRecipients = errors.New("sealed: at least one recipient is required")

// Keypair is an age x25519 identity and its recipient. Close releases
// the identity.
type Keypair struct {
	// Identity is the AGE-SECRET-KEY-1... text. Never log it.
	Identity *secret.Buffer

	// Recipient is the age1... public key.
	Recipient string
}

// Close releases the identity memory.
func (k *Keypair) Close() error {
	if k.Identity == nil {
		return nil
	}
	return k.Identity.Close()
}

// GenerateKeypair creates a new x25519 identity.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	// The string form stays on the heap until collected; age offers no
	// byte-level accessor.
	protected, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting identity: %w", err)
	}
	return &Keypair{Identity: protected, Recipient: identity.Recipient().String()}, nil
}

// SealPassword encrypts password to recipients and returns the base64
// ciphertext.
func SealPassword(password []byte, recipients ...string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("sealed: password is empty")
	}
	if len(recipients) == 0 {
		return "", ErrNoRecipients
	}

	parsed := make([]age.Recipient, 0, len(recipients))
	for _, key := range recipients {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return "", fmt.Errorf("parsing recipient %q: %w", key, err)
		}
		parsed = append(parsed, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, parsed...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(password); err != nil {
		return "", fmt.Errorf("encrypting password: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// OpenPassword decrypts a SealPassword ciphertext with identity. The
// identity is borrowed, not closed. The caller closes the returned
// buffer.
func OpenPassword(ciphertext string, identity *secret.Buffer) (*secret.Buffer, error) {
	parsed, err := age.ParseX25519Identity(identity.String())
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding sealed password: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), parsed)
	if err != nil {
		return nil, fmt.Errorf("decrypting sealed password: %w", err)
	}
	password, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(password)
		return nil, fmt.Errorf("reading decrypted password: %w", err)
	}
	if len(password) == 0 {
		return nil, errors.New("sealed: decrypted password is empty")
	}
	return secret.NewFromBytes(password)
}

// ParseRecipient checks that key is an age x25519 recipient.
func ParseRecipient(key string) error {
	if _, err := age.ParseX25519Recipient(key); err != nil {
		return fmt.Errorf("invalid age recipient: %w", err)
	}
	return nil
}
