// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/cli"
	"github.com/bureau-foundation/uaconsole/lib/sealed"
	"github.com/bureau-foundation/uaconsole/lib/secret"
)

func sealPasswordCommand() *cli.Command {
	var (
		recipients   []string
		generateKey  string
		passwordFile string
	)
	return &cli.Command{
		Name:    "seal-password",
		Summary: "Encrypt a password for connection.password_sealed",
		Description: `Encrypt the username identity's password to one or more age recipients
and print the ciphertext for connection.password_sealed. The console
opens it with the identity in connection.key_file.

The password is read from --password-file, or its first line from
stdin when the file is "-". With --generate-key a new identity is
written to the given path (which must not exist) and its recipient is
added to the recipients.`,
		Examples: []cli.Example{
			{
				Description: "Create a key and seal a password typed on stdin",
				Command:     "uaconsole seal-password --generate-key ~/.config/uaconsole/key.txt",
			},
			{
				Description: "Seal to an existing recipient",
				Command:     "uaconsole seal-password --recipient age1... --password-file pw.txt",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("seal-password", pflag.ContinueOnError)
			flagSet.StringSliceVarP(&recipients, "recipient", "r", nil, "age recipient (age1...) to seal to; repeatable")
			flagSet.StringVar(&generateKey, "generate-key", "", "write a new age identity to this path and seal to it")
			flagSet.StringVar(&passwordFile, "password-file", "-", `file holding the password, or "-" for stdin`)
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return sealPassword(recipients, generateKey, passwordFile, os.Stdout, os.Stderr)
		},
	}
}

func sealPassword(recipients []string, generateKey, passwordFile string, out, diagnostics io.Writer) error {
	for _, recipient := range recipients {
		if err := sealed.ParseRecipient(recipient); err != nil {
			return err
		}
	}
	if generateKey != "" {
		recipient, err := writeIdentity(generateKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(diagnostics, "wrote identity to %s\nrecipient: %s\n", generateKey, recipient)
		recipients = append(recipients, recipient)
	}
	if len(recipients) == 0 {
		return errors.New("no recipients: pass --recipient or --generate-key")
	}

	password, err := secret.ReadFile(passwordFile)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	defer password.Close()

	ciphertext, err := sealed.SealPassword(password.Bytes(), recipients...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, ciphertext)
	return err
}

// writeIdentity creates a keypair, writes its identity to path with
// owner-only permissions, and returns the recipient.
func writeIdentity(path string) (string, error) {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return "", err
	}
	defer keypair.Close()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating identity file: %w", err)
	}
	_, writeErr := fmt.Fprintf(file, "%s\n", keypair.Identity.Bytes())
	if err := errors.Join(writeErr, file.Close()); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	return keypair.Recipient, nil
}
