// Package report pivots rotation outcomes into a host x user table and
// writes it through a tabular writer.
package report

import (
	"sort"

	"github.com/aryankumar/pwrotate/internal/rotation"
)

// Placeholder fills both cells of a user that has no password on a host
const Placeholder = "-"

// Cell is one user column pair of a row
type Cell struct {
	User     string
	Password string
}

// Row is one host line of the report
type Row struct {
	Host  string
	Cells []Cell
}

// Matrix is the pivoted report. Users and Rows are sorted lexicographically.
// Every row has one cell per entry of Users.
type Matrix struct {
	Users []string
	Rows  []Row
}

// Build pivots outcomes into a Matrix. Only successful outcomes contribute;
// a host without any success gets no row. Input order does not matter.
func Build(outcomes []rotation.Outcome) *Matrix {
	userSet := make(map[string]struct{})
	byHost := make(map[string]map[string]string)

	for _, o := range outcomes {
		if !o.Succeeded() {
			continue
		}
		userSet[o.User] = struct{}{}

		passwords, ok := byHost[o.Host]
		if !ok {
			passwords = make(map[string]string)
			byHost[o.Host] = passwords
		}
		passwords[o.User] = o.Password
	}

	users := make([]string, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	sort.Strings(users)

	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	m := &Matrix{Users: users, Rows: make([]Row, 0, len(hosts))}
	for _, h := range hosts {
		row := Row{Host: h, Cells: make([]Cell, 0, len(users))}
		for _, u := range users {
			if pw, ok := byHost[h][u]; ok {
				row.Cells = append(row.Cells, Cell{User: u, Password: pw})
			} else {
				row.Cells = append(row.Cells, Cell{User: Placeholder, Password: Placeholder})
			}
		}
		m.Rows = append(m.Rows, row)
	}

	return m
}

// Records flattens the matrix into sheet rows: the host followed by a
// user/password pair per column. There is no header row.
func (m *Matrix) Records() [][]string {
	records := make([][]string, 0, len(m.Rows))
	for _, row := range m.Rows {
		rec := make([]string, 0, 1+2*len(row.Cells))
		rec = append(rec, row.Host)
		for _, c := range row.Cells {
			rec = append(rec, c.User, c.Password)
		}
		records = append(records, rec)
	}
	return records
}

// Writer persists report records
type Writer interface {
	Write(records [][]string) error
}

// Save writes m through w and returns w's error unchanged
func Save(m *Matrix, w Writer) error {
	return w.Write(m.Records())
}
