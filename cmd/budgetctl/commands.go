package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"budgetboard/internal/cli"
	"budgetboard/internal/core"
	"budgetboard/internal/dashboard"
)

func summaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [YYYY-MM]",
		Short: "Show the dashboard of a month (default: current month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := dashboard.NewView(a.now())
			month := v.Period().String()
			if len(args) == 1 {
				month = args[0]
			}
			return a.show(v, a.controller.SelectPeriod(cmd.Context(), v, month))
		},
	}
}

func incomeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Manage monthly income",
	}

	var month string
	set := &cobra.Command{
		Use:   "set AMOUNT",
		Short: "Set the income of a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := dashboard.NewView(a.now())
			if month == "" {
				month = v.Period().String()
			}
			err := a.controller.SaveIncome(cmd.Context(), v, args[0], month)
			if fe, ok := dashboard.AsFeedback(err); err == nil || (ok && fe.Stale) {
				fmt.Fprintln(a.errOut, "Income saved")
			}
			return a.show(v, err)
		},
	}
	set.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.AddCommand(set)
	return cmd
}

func expenseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Add or delete expenses",
	}
	cmd.AddCommand(expenseAddCmd(a), expenseDeleteCmd(a))
	return cmd
}

func expenseAddCmd(a *app) *cobra.Command {
	var draft dashboard.ExpenseDraft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := dashboard.NewView(a.now())
			if draft.Date == "" {
				draft.Date = v.Draft().Date
			}
			// Show the month the expense lands in.
			if d, err := core.ParseDate(draft.Date); err == nil {
				v.SetPeriod(core.PeriodOf(d))
			}
			created, err := a.controller.AddExpense(cmd.Context(), v, draft)
			if created != nil {
				fmt.Fprintf(a.errOut, "Expense %d added\n", created.ID)
			}
			return a.show(v, err)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&draft.Category, "category", "", "expense category")
	flags.StringVar(&draft.Amount, "amount", "", "expense amount")
	flags.StringVar(&draft.Date, "date", "", "expense date as YYYY-MM-DD (default: today)")
	flags.StringVar(&draft.Description, "description", "", "optional description")
	return cmd
}

func expenseDeleteCmd(a *app) *cobra.Command {
	var (
		yes   bool
		month string
	)
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid expense id %q", args[0])
			}

			v := dashboard.NewView(a.now())
			if month != "" {
				p, err := core.ParsePeriod(month)
				if err != nil {
					return fmt.Errorf("%s", dashboard.MsgSelectMonth)
				}
				v.SetPeriod(p)
			}

			var confirmer dashboard.Confirmer = cli.NewPromptConfirmer(a.in, a.errOut)
			if yes {
				confirmer = cli.AssumeYes{}
			}
			confirmed := false
			err = a.controller.DeleteExpense(cmd.Context(), v, id, dashboard.ConfirmFunc(func(ctx context.Context, prompt string) bool {
				confirmed = confirmer.Confirm(ctx, prompt)
				return confirmed
			}))
			if !confirmed {
				fmt.Fprintln(a.errOut, "Cancelled")
				return nil
			}
			return a.show(v, err)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	cmd.Flags().StringVar(&month, "month", "", "month to show afterwards as YYYY-MM (default: current month)")
	return cmd
}
