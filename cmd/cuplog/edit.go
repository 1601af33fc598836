package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mwalters/cuplog/internal/client"
	"github.com/mwalters/cuplog/internal/session"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit an entry's rating and location",
	Long: `Edit one entry's rating and location interactively.

ID is the entry's timestamp as shown by the API (RFC3339). The entry is
fetched once, edited in a form, and saved back as a sparse update; the
amount, unit, and timestamp of an entry never change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("edit requires an interactive terminal")
		}

		api := client.New(cfg.ServerURL, nil)

		navigated := make(chan struct{})
		sess := session.New(api, args[0], &session.Config{
			NavigateDelay: 1500 * time.Millisecond,
			NoticeTTL:     6 * time.Second,
			Translator:    translator,
			OnNavigate:    func() { close(navigated) },
		})

		sess.Load(cmd.Context())

		if sess.State() == session.StateNotFound {
			printNotice(sess.Notice())
			fmt.Println(translator.T("details.backHome"))
			return fmt.Errorf("entry %s not found", args[0])
		}

		entry := sess.Entry()
		fmt.Println(lipgloss.NewStyle().Bold(true).Render(translator.T("details.title")))
		fmt.Printf("%v %s — %s\n\n", entry.Amount, entry.Unit, formatOccurredAt(entry.OccurredAt))

		for sess.State() == session.StateReady {
			save, err := runEditForm(sess)
			if err != nil {
				return err
			}
			if !save {
				sess.Navigate()
				return nil
			}

			if err := sess.Save(cmd.Context()); err != nil {
				return err
			}
			printNotice(sess.Notice())
		}

		if sess.State() == session.StateDone {
			// Navigation is delayed so the success notice is readable.
			<-navigated
		}
		return nil
	},
}

// runEditForm collects the editable fields into the session. Returns false
// when the user backs out without saving.
func runEditForm(sess *session.Session) (bool, error) {
	rating := 0
	if r := sess.Rating(); r != nil {
		rating = *r
	}
	location := sess.Location()
	save := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(translator.T("details.rating")).
				Options(
					huh.NewOption("—", 0),
					huh.NewOption("★", 1),
					huh.NewOption("★★", 2),
					huh.NewOption("★★★", 3),
					huh.NewOption("★★★★", 4),
					huh.NewOption("★★★★★", 5),
				).
				Value(&rating),
			huh.NewInput().
				Title(translator.T("details.location")).
				Placeholder(translator.T("details.locationPlaceholder")).
				Value(&location),
			huh.NewConfirm().
				Title(translator.T("common.save")).
				Affirmative(translator.T("common.save")).
				Negative(translator.T("common.back")).
				Value(&save),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("form aborted: %w", err)
	}

	if rating == 0 {
		sess.ClearRating()
	} else {
		sess.SetRating(rating)
	}
	sess.SetLocation(location)

	return save, nil
}

func printNotice(notice *session.Notice) {
	if notice == nil {
		return
	}
	switch notice.Level {
	case session.NoticeSuccess:
		fmt.Println(successStyle.Render(notice.Message))
	default:
		fmt.Println(errorStyle.Render(notice.Message))
	}
}

func init() {
	rootCmd.AddCommand(editCmd)
}
