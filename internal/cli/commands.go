package cli

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docquiz-service/internal/app"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// NewIngestCmd uploads a document from disk.
func NewIngestCmd(configPath *string) *cobra.Command {
	var filePath, title, textFile string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Upload a document and register it",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer svc.close()

			content, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			meta := app.IngestMeta{
				Title:    title,
				FileName: filepath.Base(filePath),
				MimeType: mime.TypeByExtension(filepath.Ext(filePath)),
				OwnerID:  svc.cfg.Server.DefaultOwner,
			}
			if textFile != "" {
				text, err := os.ReadFile(textFile)
				if err != nil {
					return err
				}
				meta.SourceText = string(text)
			}
			doc, err := svc.ingest.Ingest(cmd.Context(), content, meta)
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to the source document")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&textFile, "text-file", "", "path to a plain-text extraction of the document")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// NewGenerateCmd runs quiz generation, printing progress to stderr and the
// final quiz to stdout.
func NewGenerateCmd(configPath *string) *cobra.Command {
	var documentID, filePath, title, difficulty string
	var count int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a quiz from a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if documentID == "" && filePath == "" {
				return fmt.Errorf("either --document or --file is required")
			}
			svc, err := buildServices(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer svc.close()

			if count == 0 {
				count = svc.cfg.AI.QuestionCount
			}
			req := app.GenerateRequest{
				DocumentID:    documentID,
				Title:         title,
				QuestionCount: count,
				Difficulty:    difficulty,
				OwnerID:       svc.cfg.Server.DefaultOwner,
				OnProgress: func(p app.Progress) {
					line := p.Stage
					if p.Total > 0 {
						line = fmt.Sprintf("%s %d/%d", p.Stage, p.Current, p.Total)
					}
					if p.Detail != "" {
						line += " " + p.Detail
					}
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				},
			}
			if filePath != "" {
				content, err := os.ReadFile(filePath)
				if err != nil {
					return err
				}
				req.File = content
				req.FileMeta = app.IngestMeta{
					Title:    title,
					FileName: filepath.Base(filePath),
					MimeType: mime.TypeByExtension(filepath.Ext(filePath)),
					OwnerID:  svc.cfg.Server.DefaultOwner,
				}
			}
			quiz, err := svc.generate.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, quiz)
		},
	}
	cmd.Flags().StringVar(&documentID, "document", "", "id of an ingested document")
	cmd.Flags().StringVar(&filePath, "file", "", "path to a document to ingest first")
	cmd.Flags().StringVar(&title, "title", "", "quiz title")
	cmd.Flags().IntVar(&count, "count", 0, "number of questions")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "question difficulty")
	return cmd
}

// NewGetCmd fetches one quiz aggregate.
func NewGetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <quiz-id>",
		Short: "Fetch a quiz with its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer svc.close()

			quiz, err := svc.quizzes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, quiz)
		},
	}
}

// NewSubmitCmd scores answers against a quiz.
func NewSubmitCmd(configPath *string) *cobra.Command {
	var answerPairs []string
	var answersFile string
	cmd := &cobra.Command{
		Use:   "submit <quiz-id>",
		Short: "Submit answers and print the scored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers := map[string]string{}
			if answersFile != "" {
				data, err := os.ReadFile(answersFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &answers); err != nil {
					return fmt.Errorf("parse answers file: %w", err)
				}
			}
			for _, pair := range answerPairs {
				q, o, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid answer %q, want question=option", pair)
				}
				answers[q] = o
			}

			svc, err := buildServices(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer svc.close()

			result, err := svc.quizzes.Submit(cmd.Context(), args[0], svc.cfg.Server.DefaultOwner, answers)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringArrayVar(&answerPairs, "answer", nil, "answer as question=option, repeatable")
	cmd.Flags().StringVar(&answersFile, "answers", "", "path to a JSON answers map")
	return cmd
}

// NewHistoryCmd lists past quizzes.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List generated quizzes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer svc.close()

			quizzes, err := svc.quizzes.History(cmd.Context(), svc.cfg.Server.DefaultOwner, page, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, quizzes)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	return cmd
}
