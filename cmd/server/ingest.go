package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
)

func newIngestCmd() *cobra.Command {
	var file, to string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one captured delivery through the pipeline and print the outcome",
		Long: "Reads a JSON payload (.json) or a raw RFC 5322 message (any other file)\n" +
			"and processes it exactly as a live delivery would be processed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			payload, err := readPayload(data, file, to)
			if err != nil {
				return err
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.pipeline.Process(cmd.Context(), payload)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if res.Outcome == pipeline.OutcomeFailed {
				return fmt.Errorf("run %s failed: %s", res.RunID, res.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file (.json) or raw message")
	cmd.Flags().StringVar(&to, "to", "", "recipient address, overriding the payload's")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readPayload builds a payload from a captured delivery. JSON files are taken
// as-is; anything else is treated as a raw email.
func readPayload(data []byte, name, to string) (inbound.Payload, error) {
	var payload inbound.Payload
	if strings.EqualFold(filepath.Ext(name), ".json") {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in %s: %w", name, err)
		}
		if payload == nil {
			return nil, fmt.Errorf("payload in %s is not a JSON object", name)
		}
	} else {
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("%s is empty", name)
		}
		payload = inbound.Payload{
			"raw":    string(data),
			"source": inbound.SourceEmail,
		}
	}

	if to = strings.TrimSpace(to); to != "" {
		payload["to"] = to
	}
	return payload, nil
}
