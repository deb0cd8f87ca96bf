package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kanda-claim/kanda/internal/session"
)

// registrationRoles are offered by the interactive role prompt
var registrationRoles = []struct {
	Name        string
	Description string
}{
	{Name: "driver", Description: "Submit and track claims for your vehicles"},
	{Name: "garage", Description: "Bid on repairs and submit quotations"},
	{Name: "assessor", Description: "Schedule and complete damage assessments"},
	{Name: "insurer", Description: "Register a new insurance company"},
	{Name: "third_party", Description: "Track and link claims involving you"},
}

// rolePrompter picks a role interactively; swapped in tests
var rolePrompter = promptRole

// companyPrompter asks for the insurer company name; swapped in tests
var companyPrompter = promptCompany

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var payload session.RegisterPayload

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Kanda Claim account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), payload)
		},
	}

	cmd.Flags().StringVar(&payload.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&payload.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&payload.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&payload.Phone, "phone", "", "Phone number, e.g. +250788000000")
	cmd.Flags().StringVar(&payload.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&payload.Role, "role", "", "Role: driver, garage, assessor, insurer or third_party (will prompt if not provided)")
	cmd.Flags().StringVar(&payload.TenantID, "tenant-id", "", "Insurer tenant to join (non-insurer roles)")
	cmd.Flags().StringVar(&payload.InsuranceCompanyName, "company", "", "Insurance company name (insurer role)")

	return cmd
}

func runRegister(ctx context.Context, payload session.RegisterPayload, opts ...Option) error {
	rc, err := newRunContext(ctx, opts...)
	if err != nil {
		return err
	}

	if payload.Role == "" && rc.interactive {
		payload.Role, err = rolePrompter()
		if err != nil {
			return err
		}
	}

	if payload.IsInsurer() && payload.InsuranceCompanyName == "" && rc.interactive {
		payload.InsuranceCompanyName, err = companyPrompter()
		if err != nil {
			return err
		}
	}

	if payload.Password == "" && rc.interactive {
		payload.Password, err = rc.readPassword("Password: ")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(rc.out, "Registering %s as %s...\n", payload.Email, strings.ToLower(payload.Role))

	resp, err := rc.store.Register(ctx, payload)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	message := "Account created."
	var body struct {
		Message string `json:"message"`
	}
	if resp.IsJSON() && resp.Decode(&body) == nil && body.Message != "" {
		message = body.Message
	}

	fmt.Fprintf(rc.out, "✓ %s\n", message)
	fmt.Fprintf(rc.out, "\nOnce activated, log in with: kanda login --email %s\n", payload.Email)
	return nil
}

// promptRole shows an interactive prompt for the user to select a role
func promptRole() (string, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Name | cyan }} - {{ .Description }}",
		Inactive: "  {{ .Name }} - {{ .Description }}",
		Selected: "{{ .Name | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select your role",
		Items:     registrationRoles,
		Templates: templates,
		Size:      len(registrationRoles),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return registrationRoles[index].Name, nil
}

// promptCompany asks for the insurance company an insurer registers
func promptCompany() (string, error) {
	prompt := promptui.Prompt{
		Label: "Insurance company name",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("company name is required")
			}
			return nil
		},
	}

	name, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("registration cancelled: %w", err)
	}
	return strings.TrimSpace(name), nil
}
