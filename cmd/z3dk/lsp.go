package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"z3dk/internal/asm"
	"z3dk/internal/lsp"
	"z3dk/internal/workspace"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the z3dk language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	ws, err := workspace.New(cwd, nil)
	if err != nil {
		return err
	}
	ws.Assembler = asm.NewExternal(ws.Config.Asm.Binary)

	server := lsp.NewServer(os.Stdin, os.Stdout, ws, lsp.ServerOptions{})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
