// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts the console password with age so that a
// config file can carry it as connection.password_sealed.
//
// [SealPassword] encrypts to one or more age x25519 recipients and
// returns base64 text that fits in a YAML or JSON string. [OpenPassword]
// decrypts it with an identity held in a [secret.Buffer] and returns the
// password in another Buffer. [GenerateKeypair] creates an identity for
// "uaconsole seal-password --generate-key".
package sealed
