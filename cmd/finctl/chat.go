package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fin-agents/internal/session"
)

func runChat(cmd *cobra.Command, args []string) error {
	ctx := contextOf(cmd)
	out := cmd.OutOrStdout()

	cred, err := deps.Narrative.Credential()
	if err != nil {
		return fmt.Errorf("chat unavailable: API key '%s' not found (set it or pass --api-key)", deps.Narrative.SecretName)
	}
	sess := session.New(uuid.New().String(), deps.Config.ChatTranscriptLimit)
	if _, err := deps.Narrative.CreateConversation(ctx, sess, cred); err != nil {
		return fmt.Errorf("chat unavailable: %w", err)
	}
	for _, turn := range sess.Transcript {
		fmt.Fprintln(out, renderMarkdown(turn.Content))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, titleStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		reply, err := deps.Narrative.Send(ctx, sess, line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderMarkdown(reply))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
