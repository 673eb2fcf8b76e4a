// Package ui renders command output.
package ui

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/pterm/pterm"
	"github.com/rotisserie/eris"

	"b00m.in/addressiq/address"
)

// Head returns at most limit addresses. A limit of zero or less keeps all.
func Head(addrs []address.Address, limit int) []address.Address {
	if limit > 0 && len(addrs) > limit {
		return addrs[:limit]
	}
	return addrs
}

// Addresses writes addrs to w as a "table", "json" or "yaml" document.
func Addresses(w io.Writer, format string, addrs []address.Address) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(addrs, "", "  ")
		if err != nil {
			return eris.Wrap(err, "ui: encode json")
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(addrs)
		if err != nil {
			return eris.Wrap(err, "ui: encode yaml")
		}
		_, err = w.Write(b)
		return err
	case "table", "":
		data := pterm.TableData{{"id", "full_address", "country", "lat", "lon"}}
		for _, a := range addrs {
			data = append(data, []string{a.ID, a.FullAddress, a.Country, a.Latitude.String(), a.Longitude.String()})
		}
		return Table(w, data)
	}
	return eris.Errorf("ui: unknown format %q", format)
}

// Table writes data with its first row as header.
func Table(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return eris.Wrap(err, "ui: render table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
