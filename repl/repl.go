// repl (read eval print loop) adapts db to the command line.
package repl

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"heapdb/db"
	"heapdb/schema"
)

type repl struct {
	db *db.DB
}

func New(db *db.DB) *repl {
	return &repl{db: db}
}

func (r *repl) Run() {
	fmt.Println("Welcome to heapdb. Type .help for commands, .exit to exit")
	reader := bufio.NewScanner(os.Stdin)
	for r.getInput(reader) {
		input := strings.TrimSpace(reader.Text())
		if len(input) == 0 {
			continue
		}
		if err := r.dispatch(input); err != nil {
			fmt.Printf("Err: %s\n", err)
		}
	}
}

func (*repl) getInput(reader *bufio.Scanner) bool {
	fmt.Printf("heapdb > ")
	return reader.Scan()
}

func (r *repl) dispatch(input string) error {
	args := strings.Fields(input)
	switch args[0] {
	case ".exit":
		if err := r.db.Close(); err != nil {
			fmt.Printf("Err: %s\n", err)
		}
		os.Exit(0)
	case ".help":
		r.printHelp()
		return nil
	case ".schemas":
		for _, s := range r.db.Schemas() {
			fmt.Println(formatSchema(s))
		}
		return nil
	case ".create":
		return r.create(args[1:])
	case "insert":
		return r.insert(args[1:])
	case "scan":
		return r.scan(args[1:])
	case "update":
		return r.update(args[1:])
	case "delete":
		return r.delete(args[1:])
	}
	return fmt.Errorf("unknown command %s", args[0])
}

func (*repl) printHelp() {
	fmt.Print(`.create <schema> <field>:<type>[:size] ...   types: int float char bool date
insert <schema> <value> ...                  dates as day:month:year
scan <schema>
update <schema> <field>=<value> where <field>=<value>
delete <schema> where <field>=<value>
.schemas
.exit
`)
}

func (r *repl) create(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: .create <schema> <field>:<type>[:size] ...")
	}
	fields := make([]schema.Field, 0, len(args)-1)
	for _, a := range args[1:] {
		parts := strings.Split(a, ":")
		if len(parts) < 2 {
			return fmt.Errorf("field %s needs a type", a)
		}
		f := schema.Field{Name: parts[0]}
		switch parts[1] {
		case "int":
			f.Type = schema.Integer
		case "float":
			f.Type = schema.Float
		case "char":
			f.Type = schema.Character
		case "bool":
			f.Type = schema.Boolean
		case "date":
			f.Type = schema.Date
		default:
			return fmt.Errorf("unknown type %s", parts[1])
		}
		if len(parts) == 3 {
			size, err := strconv.Atoi(parts[2])
			if err != nil {
				return fmt.Errorf("bad size in %s: %w", a, err)
			}
			f.Size = size
		}
		fields = append(fields, f)
	}
	return r.db.AddSchema(schema.New(args[0], fields))
}

func (r *repl) insert(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: insert <schema> <value> ...")
	}
	s, ok := r.db.Schema(args[0])
	if !ok {
		return fmt.Errorf("no schema named %s", args[0])
	}
	values := args[1:]
	if len(values) != s.FieldCount() {
		return fmt.Errorf("schema %s has %d fields, got %d values", s.Name(), s.FieldCount(), len(values))
	}
	row, err := r.db.NewRow(s.Name())
	if err != nil {
		return err
	}
	for i, v := range values {
		if err := setFromString(row, s.Field(i), v); err != nil {
			return err
		}
	}
	return r.db.Add(row)
}

func (r *repl) scan(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: scan <schema>")
	}
	s, ok := r.db.Schema(args[0])
	if !ok {
		return fmt.Errorf("no schema named %s", args[0])
	}
	it, err := r.db.Iterator(s.Name())
	if err != nil {
		return err
	}
	defer it.Close()
	count := 0
	for it.Next() {
		row := it.Row()
		cells := make([]string, s.FieldCount())
		for i := range cells {
			cells[i] = fmt.Sprintf("%s: %s", s.Field(i).Name, row.FormatField(i))
		}
		fmt.Println(strings.Join(cells, " | "))
		count++
	}
	if err := it.Err(); err != nil {
		return err
	}
	fmt.Printf("(%d rows)\n", count)
	return nil
}

func (r *repl) update(args []string) error {
	// update <schema> <field>=<value> where <field>=<value>
	if len(args) != 4 || args[2] != "where" {
		return fmt.Errorf("usage: update <schema> <field>=<value> where <field>=<value>")
	}
	s, ok := r.db.Schema(args[0])
	if !ok {
		return fmt.Errorf("no schema named %s", args[0])
	}
	setField, setValue, err := splitAssignment(args[1])
	if err != nil {
		return err
	}
	pred, err := r.parsePredicate(s, args[3])
	if err != nil {
		return err
	}
	i, ok := s.FieldIndex(setField)
	if !ok {
		return fmt.Errorf("schema %s has no field %s", s.Name(), setField)
	}
	value, err := literalValue(s.Field(i), setValue)
	if err != nil {
		return err
	}
	return r.db.UpdateWhere(s.Name(), setField, value, pred)
}

func (r *repl) delete(args []string) error {
	// delete <schema> where <field>=<value>
	if len(args) != 3 || args[1] != "where" {
		return fmt.Errorf("usage: delete <schema> where <field>=<value>")
	}
	s, ok := r.db.Schema(args[0])
	if !ok {
		return fmt.Errorf("no schema named %s", args[0])
	}
	pred, err := r.parsePredicate(s, args[2])
	if err != nil {
		return err
	}
	return r.db.RemoveWhere(s.Name(), pred)
}

// parsePredicate turns "field=value" into a row predicate. The repl's only
// predicate form is equality on one field.
func (r *repl) parsePredicate(s *schema.Schema, expr string) (func(*schema.Row) bool, error) {
	fieldName, literal, err := splitAssignment(expr)
	if err != nil {
		return nil, err
	}
	i, ok := s.FieldIndex(fieldName)
	if !ok {
		return nil, fmt.Errorf("schema %s has no field %s", s.Name(), fieldName)
	}
	field := s.Field(i)
	return func(row *schema.Row) bool {
		return row.FormatField(i) == formatLiteral(field, literal)
	}, nil
}

func splitAssignment(expr string) (string, string, error) {
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected <field>=<value>, got %s", expr)
	}
	return parts[0], parts[1], nil
}

// setFromString parses a literal per the field's type and writes it into the
// row.
func setFromString(row *schema.Row, f schema.Field, literal string) error {
	switch f.Type {
	case schema.Integer:
		v, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return fmt.Errorf("bad integer for %s: %w", f.Name, err)
		}
		return row.SetUint(f.Name, v)
	case schema.Float:
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return fmt.Errorf("bad float for %s: %w", f.Name, err)
		}
		return row.SetFloat(f.Name, v)
	case schema.Boolean:
		v, err := strconv.ParseBool(literal)
		if err != nil {
			return fmt.Errorf("bad bool for %s: %w", f.Name, err)
		}
		return row.SetBool(f.Name, v)
	case schema.Date:
		day, month, year, err := parseDate(literal)
		if err != nil {
			return err
		}
		return row.SetDate(f.Name, day, month, year)
	}
	return row.SetString(f.Name, literal)
}

// literalValue parses a literal into the value shape UpdateWhere accepts.
func literalValue(f schema.Field, literal string) (any, error) {
	switch f.Type {
	case schema.Integer:
		v, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer for %s: %w", f.Name, err)
		}
		return v, nil
	case schema.Float:
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float for %s: %w", f.Name, err)
		}
		return v, nil
	case schema.Boolean:
		v, err := strconv.ParseBool(literal)
		if err != nil {
			return nil, fmt.Errorf("bad bool for %s: %w", f.Name, err)
		}
		return v, nil
	case schema.Date:
		day, month, year, err := parseDate(literal)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 4)
		b[0] = byte(day)
		b[1] = byte(month)
		b[2] = byte(year)
		b[3] = byte(year >> 8)
		return b, nil
	}
	return literal, nil
}

// formatLiteral renders a literal the way Row.FormatField renders the stored
// value, so equality predicates compare like for like.
func formatLiteral(f schema.Field, literal string) string {
	switch f.Type {
	case schema.Date:
		day, month, year, err := parseDate(literal)
		if err != nil {
			return literal
		}
		return fmt.Sprintf("%d : %d : %d", day, month, year)
	case schema.Float:
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return literal
		}
		return fmt.Sprintf("%g", v)
	}
	return literal
}

func parseDate(literal string) (day, month, year int, err error) {
	parts := strings.Split(literal, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected day:month:year, got %s", literal)
	}
	if day, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("bad day in %s: %w", literal, err)
	}
	if month, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("bad month in %s: %w", literal, err)
	}
	if year, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, fmt.Errorf("bad year in %s: %w", literal, err)
	}
	return day, month, year, nil
}

func formatSchema(s *schema.Schema) string {
	names := []string{
		schema.Integer:   "int",
		schema.Float:     "float",
		schema.Character: "char",
		schema.Boolean:   "bool",
		schema.Date:      "date",
	}
	cells := make([]string, s.FieldCount())
	for i := range cells {
		f := s.Field(i)
		cells[i] = fmt.Sprintf("%s:%s:%d", f.Name, names[f.Type], f.Size)
	}
	return fmt.Sprintf("%s(%s)", s.Name(), strings.Join(cells, ", "))
}
