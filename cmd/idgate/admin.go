package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/hgrguric/idgate/internal/adapter/postgres"
	"github.com/hgrguric/idgate/internal/config"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/messagequeue"
	"github.com/hgrguric/idgate/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "reset-password":
		return runAdminResetPassword(args[1:])
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: idgate admin <command> [options]

Commands:
  reset-password   Reset a user's password
  create-user      Create a new user
  list-users       List users
  create-tenant    Register a tenant hostname
  help             Show this help message

Examples:
  idgate admin reset-password --email admin@localhost
  idgate admin create-user --email new@test.com --name "New Admin" --global-admin
  idgate admin list-users --tenant 7f0f...
  idgate admin create-tenant --name "Acme" --hostname acme.example.com
`)
}

type adminDeps struct {
	store *postgres.Store
	auth  *service.AuthService
}

func loadAdminDeps() (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	builder := service.NewClaimsBuilder(store)
	authSvc := service.NewAuthService(store, builder, &cfg.Auth)

	cleanup := func() {
		pool.Close()
	}
	return &adminDeps{store: store, auth: authSvc}, cleanup, nil
}

func runAdminResetPassword(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	password := fs.String("password", "", "new password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	newPass := *password
	if newPass == "" {
		var err error
		newPass, err = promptPasswordConfirmed()
		if err != nil {
			return err
		}
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	u, err := deps.store.GetUserByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if err := deps.auth.ResetCredential(ctx, u.ID, newPass); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Password reset successfully for %s\n", *email)
	return nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	name := fs.String("name", "", "user display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	tenantID := fs.String("tenant", "", "tenant ID (omit for a global user)")
	globalAdmin := fs.Bool("global-admin", false, "grant the GlobalAdmin role")
	tenantAdmin := fs.Bool("tenant-admin", false, "grant the TenantAdmin role")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPasswordConfirmed()
		if err != nil {
			return err
		}
	}

	req := &user.CreateRequest{
		Email:    *email,
		Name:     *name,
		Password: pass,
	}
	if *tenantID != "" {
		req.TenantID = tenantID
	}
	if *globalAdmin {
		req.Roles = append(req.Roles, user.RoleGlobalAdmin)
	}
	if *tenantAdmin {
		req.Roles = append(req.Roles, user.RoleTenantAdmin)
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	u, err := deps.auth.CreateAccount(context.Background(), req)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s, roles=%v)\n", u.Email, u.ID, u.Roles)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	tenantID := fs.String("tenant", "", "restrict to one tenant")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	var filter *string
	if *tenantID != "" {
		filter = tenantID
	}

	users, err := deps.store.ListUsers(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tTENANT\tROLES\tCONFIRMED")
	for i := range users {
		tenantCol := "-"
		if users[i].TenantID != nil {
			tenantCol = *users[i].TenantID
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%t\n",
			users[i].ID, users[i].Email, users[i].Name, tenantCol, users[i].Roles, users[i].EmailConfirmed)
	}
	return w.Flush()
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant display name (required)")
	hostname := fs.String("hostname", "", "hostname to route to this tenant (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *hostname == "" {
		return fmt.Errorf("--hostname is required")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	svc := service.NewTenantService(deps.store, messagequeue.Nop{})
	t, err := svc.Create(context.Background(), tenant.CreateRequest{
		Name:     *name,
		Hostname: *hostname,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, hostname=%s)\n", t.Name, t.ID, t.Hostname)
	return nil
}

func promptPasswordConfirmed() (string, error) {
	pass, err := promptPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pass, nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
