package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrace/fintrace/internal/citations"
	"github.com/fintrace/fintrace/internal/hydrate"
)

func resolveCMD() *cobra.Command {
	var baseURL string
	var inPath string
	var doHydrate bool
	var timeout time.Duration

	var resolve = &cobra.Command{
		Use:   "resolve",
		Short: "Rewrite citation markers in an answer and list its sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if inPath == "" || inPath == "-" {
				raw, err = io.ReadAll(os.Stdin)
			} else {
				raw, err = os.ReadFile(inPath)
			}
			if err != nil {
				return err
			}
			text := string(raw)

			refs := citations.Parse(text)
			fmt.Println(citations.Rewrite(text, refs))
			if len(refs) == 0 {
				return nil
			}

			fmt.Println("\nSources:")
			for _, r := range refs {
				fmt.Printf("  [%d] %s\n", r.ID, r.DisplayText)
			}
			if !doHydrate {
				return nil
			}
			if baseURL == "" {
				return fmt.Errorf("--base-url required with --hydrate")
			}

			var chunkIDs []string
			for _, r := range refs {
				if r.Filename == "chunk-"+r.EntryID {
					chunkIDs = append(chunkIDs, r.EntryID)
				}
			}
			if len(chunkIDs) == 0 {
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			fetcher := hydrate.NewHTTPFetcher(baseURL, timeout, 2, 300*time.Millisecond)
			hyd := hydrate.NewHydrator(fetcher, log.New(os.Stderr, "[HYDRATE] ", log.LstdFlags))
			hyd.FetchMany(ctx, chunkIDs)

			fmt.Println("\nChunks:")
			for _, id := range chunkIDs {
				if rec := hyd.GetByID(id); rec != nil {
					fmt.Printf("  %s: %s, %s\n", id, rec.CompanyName, rec.Title)
					continue
				}
				if msg, ok := hyd.Error(id); ok {
					fmt.Printf("  %s: ERROR %s\n", id, msg)
				}
			}
			return nil
		},
	}
	resolve.Flags().StringVarP(&inPath, "file", "f", "-", "answer file (- for stdin)")
	resolve.Flags().StringVar(&baseURL, "base-url", "", "chunk backend base URL")
	resolve.Flags().BoolVar(&doHydrate, "hydrate", false, "fetch chunk payloads for chunk citations")
	resolve.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "hydration timeout")

	return resolve
}
