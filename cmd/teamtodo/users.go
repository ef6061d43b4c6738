package main

import (
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/teamtodo/internal/config"
	"github.com/mtlprog/teamtodo/internal/database"
	"github.com/mtlprog/teamtodo/internal/domain"
	"github.com/mtlprog/teamtodo/internal/repository"
	"github.com/mtlprog/teamtodo/internal/service"
)

// withUsers opens the database and hands a UserService to fn.
func withUsers(c *cli.Context, fn func(users *service.UserService) error) error {
	db, err := database.Open(c.Context, c.String("database-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(service.NewUserService(repository.NewUserRepository(db.Pool())))
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage the user directory",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "Display name"},
					&cli.StringFlag{Name: "email", Required: true, Usage: "Email address"},
					&cli.StringFlag{Name: "role", Value: "user", Usage: "Role (user, manager, admin)"},
				},
				Action: func(c *cli.Context) error {
					return withUsers(c, func(users *service.UserService) error {
						user, err := users.CreateUser(c.Context, service.CreateUserParams{
							Name:  c.String("name"),
							Email: c.String("email"),
							Role:  c.String("role"),
						})
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, user.ID)
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List users",
				Action: func(c *cli.Context) error {
					return withUsers(c, func(users *service.UserService) error {
						list, err := users.ListUsers(c.Context)
						if err != nil {
							return err
						}

						tw := table.NewWriter()
						tw.SetOutputMirror(c.App.Writer)
						tw.SetStyle(table.StyleLight)
						tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Active"})
						for _, u := range list {
							tw.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role, u.IsActive})
						}
						tw.Render()
						return nil
					})
				},
			},
			{
				Name:  "set-role",
				Usage: "Change a user's role",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Email of the user"},
					&cli.StringFlag{Name: "role", Required: true, Usage: "New role (user, manager, admin)"},
				},
				Action: func(c *cli.Context) error {
					return withUsers(c, func(users *service.UserService) error {
						user, err := users.GetUserByEmail(c.Context, c.String("email"))
						if err != nil {
							return err
						}
						_, err = users.ChangeRole(c.Context, user.ID, c.String("role"))
						return err
					})
				},
			},
			{
				Name:  "set-active",
				Usage: "Activate or deactivate a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Email of the user"},
					&cli.BoolFlag{Name: "active", Value: true, Usage: "Whether the user may sign in (--active=false to deactivate)"},
				},
				Action: func(c *cli.Context) error {
					return withUsers(c, func(users *service.UserService) error {
						user, err := users.GetUserByEmail(c.Context, c.String("email"))
						if err != nil {
							return err
						}
						_, err = users.SetActive(c.Context, user.ID, c.Bool("active"))
						return err
					})
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the users listed in a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Required: true,
				Usage:    "Path to the seed file",
				EnvVars:  []string{"SEED_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			seed, err := config.LoadSeed(c.String("file"))
			if err != nil {
				return err
			}

			params := make([]service.CreateUserParams, len(seed.Users))
			for i, u := range seed.Users {
				params[i] = service.CreateUserParams{Name: u.Name, Email: u.Email, Role: u.Role}
			}

			return withUsers(c, func(users *service.UserService) error {
				result, err := users.EnsureUsers(c.Context, params)
				if err != nil {
					return err
				}
				slog.Info("seed applied", "created", result.Created, "existing", result.Existing)
				return nil
			})
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Bearer tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "Issue a bearer token for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Email of the user"},
				},
				Action: func(c *cli.Context) error {
					tokens, err := newTokens(c)
					if err != nil {
						return err
					}

					return withUsers(c, func(users *service.UserService) error {
						user, err := users.GetUserByEmail(c.Context, c.String("email"))
						if err != nil {
							return err
						}
						if !user.IsActive {
							return fmt.Errorf("%w: %s", domain.ErrUserInactive, user.Email)
						}

						token, err := tokens.Issue(user.ID)
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, token)
						return nil
					})
				},
			},
		},
	}
}
