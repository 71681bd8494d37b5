package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"embedd/internal/config"
	"embedd/internal/protocol"
)

func newEmbedCmd() *cobra.Command {
	var (
		addr    string
		model   string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "embed [TEXT]",
		Short:   "Request one embedding from a running server over OVNT",
		Example: "  embedd embed --addr 127.0.0.1:8787 \"hello world\"\n  echo hello | embedd embed --model all-MiniLM-L6-v2",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := embedInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			c, err := protocol.Dial(ctx, addr)
			if err != nil {
				return err
			}
			defer c.Close()
			vec, err := c.Embed(ctx, text, model)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(vec)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", envOr("EMBEDD_ADDR", "127.0.0.1"+portOf(config.DefaultBindAddress)), "OVNT server address")
	f.StringVar(&model, "model", "", "Model name; the server default when empty")
	f.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}

// embedInput returns the positional text, or stdin without its trailing
// newline when no argument is given.
func embedInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	text := strings.TrimRight(string(b), "\r\n")
	if text == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}

func portOf(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ""
}
