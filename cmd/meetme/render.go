package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/beekhof/meetme/internal/agenda"
	"github.com/beekhof/meetme/internal/catalog"
	"github.com/beekhof/meetme/internal/datetime"
)

func renderCalendars(w io.Writer, cals []catalog.Descriptor) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFLAGS\tDESCRIPTION")
	for _, c := range cals {
		flags := ""
		if c.Primary {
			flags += "P"
		}
		if c.Selected {
			flags += "S"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Summary, flags, c.Description)
	}
	tw.Flush()
}

func renderAgenda(w io.Writer, a agenda.Agenda) {
	for i, cd := range a {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, cd.Name)

		empty := true
		for _, day := range cd.Days {
			if len(day.Events) == 0 {
				continue
			}
			empty = false
			fmt.Fprintf(w, "  %s\n", datetime.FormatDisplayDate(day.Date))
			for _, ev := range day.Events {
				fmt.Fprintf(w, "    %s  %s\n", eventTimes(ev), ev.Label)
			}
		}
		if empty {
			fmt.Fprintln(w, "  (no events)")
		}
	}
}

func eventTimes(ev agenda.Event) string {
	if ev.AllDay {
		return "all day    "
	}
	return datetime.FormatDisplayTime(ev.Start) + "-" + datetime.FormatDisplayTime(ev.End)
}
