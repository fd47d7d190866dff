// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keygen

import (
	"fmt"
	"os"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/pkg/log"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	KeyPath    string `short:"k" long:"key" description:"path to write the PEM private key to" required:"true"`
	PubKeyPath string `short:"p" long:"pub" description:"path to write the PEM public key to"`
	Force      bool   `long:"force" description:"overwrite an existing key"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "generates a P-256 signing key"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "The public half is what the boot stages are built with, see 'pubkey'."
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	if !cmd.Force {
		if _, err := os.Stat(cmd.KeyPath); err == nil {
			return commands.ErrArgs{Err: fmt.Errorf("'%s' already exists, use --force to overwrite", cmd.KeyPath)}
		}
	}

	key, err := sigverify.GenerateKey()
	if err != nil {
		return fmt.Errorf("unable to generate key: %w", err)
	}
	priv, err := sigverify.MarshalPrivateKeyPEM(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.KeyPath, priv, 0o600); err != nil {
		return fmt.Errorf("unable to write '%s': %w", cmd.KeyPath, err)
	}
	log.Infof("wrote private key to '%s'", cmd.KeyPath)

	if cmd.PubKeyPath == "" {
		return nil
	}
	pub, err := sigverify.MarshalPublicKeyPEM(&key.PublicKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.PubKeyPath, pub, 0o644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", cmd.PubKeyPath, err)
	}
	log.Infof("wrote public key to '%s'", cmd.PubKeyPath)
	return nil
}
