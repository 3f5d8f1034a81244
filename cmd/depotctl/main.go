// depotctl es la herramienta de administración por consola: bootstrapping de
// grupos y usuarios, bloqueos y resets sin pasar por la API HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/depotmaster/internal/config"
	"github.com/dropDatabas3/depotmaster/internal/security/password"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
	"github.com/dropDatabas3/depotmaster/internal/store/pg"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "depotctl",
		Short:         "Administración de depotmaster por consola",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "ruta al config YAML (vacío = defaults + env)")

	root.AddCommand(
		createGroupCmd(),
		listGroupsCmd(),
		createUserCmd(),
		listUsersCmd(),
		blockCmd(true),
		blockCmd(false),
		requireResetCmd(),
		assignGroupCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "depotctl:", err)
		os.Exit(1)
	}
}

// withStore abre el store postgres, corre fn y cierra. Las herramientas de
// consola van siempre contra la base real, no hay modo memoria acá.
func withStore(fn func(ctx context.Context, repos *store.Store) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("falta DATABASE_DSN")
	}

	ctx := context.Background()
	pgStore, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxOpenConns:    cfg.Storage.Postgres.MaxConns,
		MinIdleConns:    cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
	})
	if err != nil {
		return err
	}
	defer pgStore.Close()
	return fn(ctx, pgStore.Repos())
}

func createGroupCmd() *cobra.Command {
	var rulesFlag string
	cmd := &cobra.Command{
		Use:   "create-group <nombre>",
		Short: "Crea un grupo con el set de rules dado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := parseRules(rulesFlag)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, repos *store.Store) error {
				g := &core.Group{Name: args[0], Rules: rules}
				if err := repos.Groups.Insert(ctx, g); err != nil {
					return err
				}
				fmt.Printf("grupo %q creado con id %d\n", g.Name, g.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rulesFlag, "rules", "", "rules separadas por coma, ej: 1,10,11")
	return cmd
}

func listGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-groups",
		Short: "Lista los grupos y sus rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(func(ctx context.Context, repos *store.Store) error {
				groups, err := repos.Groups.List(ctx)
				if err != nil {
					return err
				}
				for _, g := range groups {
					fmt.Printf("%d\t%s\t%v\n", g.ID, g.Name, g.Rules)
				}
				return nil
			})
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		email   string
		groupID int64
	)
	cmd := &cobra.Command{
		Use:   "create-user <login> <secret>",
		Short: "Crea un usuario activo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phc, err := password.Hash(password.Default, args[1])
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, repos *store.Store) error {
				u := &core.User{
					ID:             uuid.NewString(),
					Login:          args[0],
					Email:          email,
					GroupID:        groupID,
					PasswordSecret: phc,
					Status:         "active",
				}
				if err := repos.Users.Insert(ctx, u); err != nil {
					return err
				}
				fmt.Printf("usuario %q creado con id %s\n", u.Login, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email del usuario")
	cmd.Flags().Int64Var(&groupID, "group", 0, "id de grupo inicial (0 = sin grupo)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "Lista usuarios con sus flags de estado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(func(ctx context.Context, repos *store.Store) error {
				users, err := repos.Users.List(ctx)
				if err != nil {
					return err
				}
				for _, u := range users {
					flags := make([]string, 0, 3)
					if u.IsBlocked {
						flags = append(flags, "blocked")
					}
					if u.RequiresPasswordReset {
						flags = append(flags, "reset")
					}
					if u.TwoFactorEnabled {
						flags = append(flags, "2fa")
					}
					fmt.Printf("%s\t%s\tgrupo=%d\t%s\n", u.ID, u.Login, u.GroupID, strings.Join(flags, ","))
				}
				return nil
			})
		},
	}
}

func blockCmd(block bool) *cobra.Command {
	use, short := "block <login>", "Bloquea la cuenta: todo acceso rechazado desde el request siguiente"
	if !block {
		use, short = "unblock <login>", "Levanta el bloqueo de la cuenta"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, repos *store.Store) error {
				u, err := repos.Users.FindByLogin(ctx, args[0])
				if err != nil {
					return err
				}
				return repos.Users.SetBlocked(ctx, u.ID, block)
			})
		},
	}
}

func requireResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "require-reset <login>",
		Short: "Fuerza cambio de password en el próximo login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, repos *store.Store) error {
				u, err := repos.Users.FindByLogin(ctx, args[0])
				if err != nil {
					return err
				}
				return repos.Users.SetRequiresPasswordReset(ctx, u.ID, true)
			})
		},
	}
}

func assignGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign-group <login> <group-id>",
		Short: "Asigna el usuario a un grupo (0 = sin grupo)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || groupID < 0 {
				return fmt.Errorf("group-id inválido: %q", args[1])
			}
			return withStore(func(ctx context.Context, repos *store.Store) error {
				u, err := repos.Users.FindByLogin(ctx, args[0])
				if err != nil {
					return err
				}
				return repos.Users.SetGroup(ctx, u.ID, groupID)
			})
		},
	}
}

func parseRules(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	rules := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("rule inválida: %q", p)
		}
		rules = append(rules, n)
	}
	return rules, nil
}
