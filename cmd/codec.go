package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/illarion/sealsheet/internal/core"
	"github.com/illarion/sealsheet/internal/crypto"
)

// Input selects where one-shot encrypt/decrypt read from:
// literal text, a file, or stdin when both are empty.
type Input struct {
	Text    string
	HasText bool
	File    string

	stdin io.Reader // os.Stdin when nil
}

func (in Input) read() ([]byte, error) {
	switch {
	case in.HasText:
		return []byte(in.Text), nil
	case in.File != "":
		return os.ReadFile(in.File)
	case in.stdin != nil:
		return io.ReadAll(in.stdin)
	default:
		return io.ReadAll(os.Stdin)
	}
}

// Encrypt prints the OpenSSL-compatible base64 line for the input
func Encrypt(env *Env, in Input) {
	if err := encrypt(env, in, os.Stdout); err != nil {
		HandleError(err)
	}
}

// Decrypt prints the plaintext of an encrypted text produced by Encrypt
// or by `openssl enc -aes-256-cbc -pbkdf2 -base64 -A`
func Decrypt(env *Env, in Input) {
	if err := decrypt(env, in, os.Stdout, core.IsTerminal()); err != nil {
		HandleError(err)
	}
}

func encrypt(env *Env, in Input, w io.Writer) error {
	data, err := in.read()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(data)

	password, err := GetPasswordForInit()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	codec := crypto.NewCodec()
	var encoded string
	if in.HasText {
		encoded, err = codec.EncryptText(in.Text, password, env.Config.Iterations)
	} else {
		encoded, err = codec.Encrypt(data, password, env.Config.Iterations)
	}
	if err != nil {
		return err
	}
	env.Logger.Debug("encrypted", "bytes", len(data), "iterations", env.Config.Iterations)

	_, err = fmt.Fprintln(w, encoded)
	return err
}

// decrypt writes the plaintext to w. Text given with -t must decrypt to
// UTF-8; files and stdin may hold any bytes. newline ends raw output that
// lacks one, for terminals.
func decrypt(env *Env, in Input, w io.Writer, newline bool) error {
	data, err := in.read()
	if err != nil {
		return err
	}

	password, err := GetPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	codec := crypto.NewCodec()
	if in.HasText {
		text, err := codec.DecryptText(in.Text, password, env.Config.Iterations)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, text)
		return err
	}

	plain, err := codec.Decrypt(string(data), password, env.Config.Iterations)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plain)

	if _, err := w.Write(plain); err != nil {
		return err
	}
	if newline && len(plain) > 0 && plain[len(plain)-1] != '\n' {
		_, err = fmt.Fprintln(w)
	}
	return err
}
