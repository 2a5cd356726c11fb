package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/mima/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

func printRecords(w io.Writer, views []models.RecordView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tPASSWORD\tCREATED\t")
	for _, v := range views {
		title := v.Title
		if v.Favorite {
			title = "* " + title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", v.ID, title, v.Username, v.Password, v.CreatedAt.Local().Format(timeLayout))
	}
	_ = tw.Flush()
}

func printRecord(w io.Writer, v *models.RecordView) {
	fmt.Fprintf(w, "ID:       %s\n", v.ID)
	fmt.Fprintf(w, "Title:    %s\n", v.Title)
	fmt.Fprintf(w, "Username: %s\n", v.Username)
	fmt.Fprintf(w, "Password: %s\n", v.Password)
	fmt.Fprintf(w, "Favorite: %t\n", v.Favorite)
	fmt.Fprintf(w, "Created:  %s\n", v.CreatedAt.Local().Format(timeLayout))
	if v.DeletedAt != nil {
		fmt.Fprintf(w, "Deleted:  %s\n", v.DeletedAt.Local().Format(timeLayout))
	}
	printNotes(w, v.Notes)
}

func printHistory(w io.Writer, views []models.HistoryView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "(no history)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tTAKEN\t")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", v.ID, v.Title, v.Username, v.DeletedAt.Local().Format(timeLayout))
	}
	_ = tw.Flush()
}

func printHistoryEntry(w io.Writer, v *models.HistoryView) {
	fmt.Fprintf(w, "ID:       %s\n", v.ID)
	fmt.Fprintf(w, "Record:   %s\n", v.MimaID)
	fmt.Fprintf(w, "Title:    %s\n", v.Title)
	fmt.Fprintf(w, "Username: %s\n", v.Username)
	fmt.Fprintf(w, "Password: %s\n", v.Password)
	fmt.Fprintf(w, "Taken:    %s\n", v.DeletedAt.Local().Format(timeLayout))
	printNotes(w, v.Notes)
}

func printNotes(w io.Writer, notes string) {
	if notes == "" {
		return
	}
	fmt.Fprintln(w, "Notes:")
	for _, line := range strings.Split(notes, "\n") {
		fmt.Fprintln(w, "  "+line)
	}
}
