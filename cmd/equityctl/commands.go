package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appequity "github.com/lending/equity/internal/application/equity"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// shareholderFlags binds the editable shareholder fields
type shareholderFlags struct {
	name       string
	nationalID string
	contact    string
	address    string
	amount     string
}

func (f *shareholderFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Full name")
	fs.StringVar(&f.nationalID, "national-id", "", "National identity card number")
	fs.StringVar(&f.contact, "contact", "", "Contact phone number")
	fs.StringVar(&f.address, "address", "", "Postal address")
	fs.StringVar(&f.amount, "amount", "", "Invested amount")
}

func newCreateCmd(run runner) *cobra.Command {
	f := &shareholderFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a shareholder",
		Args:  cobra.NoArgs,
		RunE: run(mutating(func(cmd *cobra.Command, _ []string, a *app) error {
			created, err := a.shareholders.Create(cmd.Context(), appequity.CreateShareholderInput{
				Name:           f.name,
				NationalID:     f.nationalID,
				Contact:        f.contact,
				Address:        f.address,
				InvestedAmount: f.amount,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		})),
	}
	f.bind(cmd.Flags())
	return cmd
}

func newUpdateCmd(run runner) *cobra.Command {
	f := &shareholderFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a shareholder; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: run(mutating(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			changed := func(name string, value *string) *string {
				if cmd.Flags().Changed(name) {
					return value
				}
				return nil
			}
			in := appequity.UpdateShareholderInput{
				Name:           changed("name", &f.name),
				NationalID:     changed("national-id", &f.nationalID),
				Contact:        changed("contact", &f.contact),
				Address:        changed("address", &f.address),
				InvestedAmount: changed("amount", &f.amount),
			}
			if in.IsEmpty() {
				return errors.New("nothing to update: pass at least one of --name, --national-id, --contact, --address, --amount")
			}

			updated, err := a.shareholders.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updated)
		})),
	}
	f.bind(cmd.Flags())
	return cmd
}

func newDeleteCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a shareholder and re-apportion the others",
		Args:  cobra.ExactArgs(1),
		RunE: run(mutating(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.shareholders.Delete(cmd.Context(), id); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true})
		})),
	}
}

func newGetCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one shareholder",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			holder, err := a.shareholders.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), holder)
		}),
	}
}

func newListCmd(run runner) *cobra.Command {
	var filter appequity.ShareholderListFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shareholders of the pool",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
			page, err := a.shareholders.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		}),
	}
	fs := cmd.Flags()
	fs.IntVar(&filter.Page, "page", 1, "Page number, starting at 1")
	fs.IntVar(&filter.PageSize, "page-size", 20, "Results per page")
	fs.StringVar(&filter.OrderBy, "order-by", "created_at", "Sort column: name, invested_amount, created_at, updated_at")
	fs.StringVar(&filter.OrderDir, "order-dir", "asc", "Sort direction: asc or desc")
	fs.StringVar(&filter.Search, "search", "", "Match name, national ID or contact")
	return cmd
}

func newPreviewCmd(run runner) *cobra.Command {
	var (
		exclude   string
		fromStdin bool
		debounce  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "preview [amount...]",
		Short: "Show the percentage and shares an amount would receive",
		Long: `Preview computes the allocation of a candidate amount without writing anything.

With --stdin, amounts are read one per line and treated as successive edits of
the same field: each line supersedes the previous one and only the preview of
the last amount is printed.`,
		RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
			var excludeID *uuid.UUID
			if exclude != "" {
				id, err := parseID(exclude)
				if err != nil {
					return err
				}
				excludeID = &id
			}

			if fromStdin {
				return previewStream(cmd, a, excludeID, debounce)
			}
			if len(args) == 0 {
				return errors.New("at least one amount is required")
			}

			previews := make([]*appequity.PreviewResponse, 0, len(args))
			for _, arg := range args {
				amount, err := parseAmount(arg)
				if err != nil {
					return err
				}
				preview, err := a.previews.CalculatePreview(cmd.Context(), amount, excludeID)
				if err != nil {
					return err
				}
				previews = append(previews, preview)
			}
			if len(previews) == 1 {
				return writeJSON(cmd.OutOrStdout(), previews[0])
			}
			return writeJSON(cmd.OutOrStdout(), previews)
		}),
	}
	fs := cmd.Flags()
	fs.StringVar(&exclude, "exclude", "", "Shareholder being edited, whose current amount is released")
	fs.BoolVar(&fromStdin, "stdin", false, "Read successive amounts from standard input")
	fs.DurationVar(&debounce, "debounce", 150*time.Millisecond, "Quiet period before a streamed amount is computed")
	return cmd
}

// previewStream feeds every input line to one preview session and prints the
// result of the last submission.
func previewStream(cmd *cobra.Command, a *app, excludeID *uuid.UUID, debounce time.Duration) error {
	ctx := cmd.Context()
	session := a.previews.NewSession(debounce)
	defer session.Close()

	var last uint64
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		amount, err := parseAmount(line)
		if err != nil {
			return err
		}
		last = session.Submit(ctx, amount, excludeID)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read amounts: %w", err)
	}
	if last == 0 {
		return errors.New("no amounts on standard input")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result := <-session.Results():
			if result.Generation != last {
				continue
			}
			if result.Err != nil {
				return result.Err
			}
			return writeJSON(cmd.OutOrStdout(), result.Preview)
		}
	}
}

func newSummaryCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the capacity position of the pool",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
			summary, err := a.shareholders.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		}),
	}
}

func newDistributeCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <total-profit>",
		Short: "Split a profit across shareholders by percentage",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
			profit, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			dist, err := a.distributions.Distribute(cmd.Context(), profit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), dist)
		}),
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid shareholder id %q: %w", raw, err)
	}
	return id, nil
}

// parseAmount accepts plain decimals; separators such as "1,000" are rejected
// the same way the shareholder fields reject them.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
