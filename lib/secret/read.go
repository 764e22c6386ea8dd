// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadFile reads a secret from path, or its first line from stdin when
// path is "-". Surrounding whitespace is trimmed and every heap copy is
// zeroed. An empty secret is an error.
func ReadFile(path string) (*Buffer, error) {
	if path == "-" {
		return readLine(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(data)
	return fromTrimmed(data, path)
}

func readLine(r io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return nil, errors.New("stdin is empty")
	}
	line := scanner.Bytes()
	defer Zero(line)
	return fromTrimmed(line, "stdin")
}

func fromTrimmed(data []byte, source string) (*Buffer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret in %s is empty", source)
	}
	return NewFromBytes(trimmed)
}
