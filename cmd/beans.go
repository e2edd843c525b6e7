package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-beans/framework/app"
	"github.com/km-arc/go-beans/framework/http/validation"
)

func newBeansCmd(flags *rootFlags) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "beans",
		Short: "Boot the application and list its bean definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := validation.Make(map[string]string{"scope": scope},
				validation.Rules{"scope": "sometimes|in:singleton,prototype"})
			if v.Fails() {
				return fmt.Errorf("--scope: %s", v.Errors().First("scope"))
			}

			a, err := app.New(cmd.Context(), app.Options{Config: flags.options()})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.Boot(cmd.Context()); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSCOPE\tTYPE\tINSTANTIATED")
			for _, name := range a.BeanDefinitionNames() {
				def, err := a.BeanDefinition(name)
				if err != nil {
					continue
				}
				if scope != "" && string(def.Scope) != scope {
					continue
				}
				typ := "?"
				if t := def.BeanType(); t != nil {
					typ = t.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", name, def.Scope, typ, a.ContainsSingleton(name))
			}
			for _, name := range a.Providers.Deferred() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", name, "deferred", "-", false)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "only list beans of this scope (singleton or prototype)")
	return cmd
}
