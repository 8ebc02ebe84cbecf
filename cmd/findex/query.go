package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/findex/internal/index"
	"github.com/cuemby/findex/internal/index/iter"
	"github.com/cuemby/findex/internal/metrics"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <expr>",
	Short: "Evaluate a postfix term expression (e.g. `quick brown AND fox OR`)",
	Long: `Evaluates a postfix (reverse Polish) expression of terms and the
AND/OR operators against the index's posting lists, printing every
matching document id and url in ascending order.

Example: query "quick brown AND" finds documents containing both
"quick" and "brown".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		rt, err := db.BeginRead()
		if err != nil {
			return err
		}
		defer rt.Close()

		it, err := evalPostfix(rt, args[0])
		if err != nil {
			return err
		}

		timer := metrics.NewTimer()
		out := cmd.OutOrStdout()
		count := 0
		for id := it.DocID(); id != 0; id = it.Next() {
			count++
			url, ok, err := rt.DocumentURL(index.DocID(id))
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "%d\t%s\n", id, url)
			} else {
				fmt.Fprintf(out, "%d\n", id)
			}
		}
		timer.ObserveDuration(metrics.QueryDuration)
		metrics.QueryResultsTotal.Add(float64(count))
		fmt.Fprintf(out, "%d result(s)\n", count)
		return nil
	},
}

// evalPostfix evaluates a whitespace-separated postfix expression of
// terms and AND/OR operators into a single DocIterator.
func evalPostfix(rt *index.ReadTransaction, expr string) (iter.DocIterator, error) {
	var stack []iter.DocIterator
	for _, tok := range strings.Fields(expr) {
		switch strings.ToUpper(tok) {
		case "AND":
			if len(stack) < 2 {
				return nil, fmt.Errorf("query: AND needs two operands")
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, iter.NewAnd(a, b))
		case "OR":
			if len(stack) < 2 {
				return nil, fmt.Errorf("query: OR needs two operands")
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, iter.NewOr(a, b))
		default:
			it, err := rt.TermIterator(tok)
			if err != nil {
				return nil, err
			}
			stack = append(stack, it)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("query: expression did not reduce to a single result (%d left on stack)", len(stack))
	}
	return stack[0], nil
}
