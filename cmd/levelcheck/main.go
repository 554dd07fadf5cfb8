// Command levelcheck inspects Haunted Board level files. It can:
//   - validate every level of a directory (or the files given) and report
//     the occupants, target and opening moves of each
//   - show a level as a glyph grid with rulers and a legend
//   - list the moves of an occupant on a level's starting board
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/levels"
)

// ValidationResult captures the outcome of validating a single file.
// Info holds the report of a valid file, Errors the problems of an invalid one.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Info     []string
	Warnings []string
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "levelcheck:", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	dirFlag := &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Value:   "levels",
		Usage:   "levels directory",
		Sources: cli.EnvVars("LEVELS_DIR"),
	}

	return &cli.Command{
		Name:   "levelcheck",
		Usage:  "inspect Haunted Board level files",
		Writer: out,
		Flags:  []cli.Flag{dirFlag},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "validate level files",
				ArgsUsage: "[file ...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						var err error
						if files, err = levelFiles(cmd.String("dir")); err != nil {
							return err
						}
					}
					return validateAll(out, files)
				},
			},
			{
				Name:      "show",
				Usage:     "print a level",
				ArgsUsage: "<level-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					level, err := loadLevel(cmd.String("dir"), cmd.Args().First())
					if err != nil {
						return err
					}
					showLevel(out, level)
					return nil
				},
			},
			{
				Name:      "moves",
				Usage:     "list the moves of an occupant on a level's starting board",
				ArgsUsage: "<level-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "origin as row,col (default: the starting occupant)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					level, err := loadLevel(cmd.String("dir"), cmd.Args().First())
					if err != nil {
						return err
					}
					from, ok := engine.StartPosition(level.Board)
					if s := cmd.String("from"); s != "" {
						if from, err = parsePosition(s); err != nil {
							return err
						}
						ok = true
					}
					if !ok {
						return errors.New("level has no occupants")
					}
					return listMoves(out, level.Board, from)
				},
			},
		},
	}
}

// levelFiles lists the level files of dir in level order
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !levels.Supported(filepath.Ext(entry.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Slice(files, func(i, j int) bool {
		return levels.LevelLess(levelID(files[i]), levelID(files[j]))
	})
	return files, nil
}

func levelID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadLevel(dir, id string) (*engine.Level, error) {
	if id == "" {
		return nil, errors.New("a level id is required")
	}
	manager, err := levels.NewManager(dir)
	if err != nil {
		return nil, err
	}
	return manager.LoadLevel(strings.TrimSuffix(id, filepath.Ext(id)))
}

// validateFile loads and validates a single level file, then reports the
// occupants, the target and what the starting occupant can do.
func validateFile(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	level, err := levels.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if level.ID != levelID(path) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("id %q differs from the file name; the file name is used", level.ID))
	}

	b := level.Board
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", level.Name),
		fmt.Sprintf("✓ Grid: %dx%d", b.Width(), b.Height()),
		fmt.Sprintf("✓ Occupants: %d (%s)", b.Occupants(), pieceSummary(b)),
		fmt.Sprintf("✓ Disabled cells: %d", engine.CountDisabled(b)),
	)

	if level.MinMoves == 0 {
		result.Warnings = append(result.Warnings, "no minMoves target; ratings use 3")
	} else {
		result.Info = append(result.Info, fmt.Sprintf("✓ Target: %d moves", level.MinMoves))
	}
	if level.MinMoves > 0 && level.MinMoves < b.Occupants()-1 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("minMoves %d is below the %d moves of a capture-only solve", level.MinMoves, b.Occupants()-1))
	}

	if start, ok := engine.StartPosition(b); ok {
		moves, err := engine.Generate(b, start, b.At(start).Piece)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("start %s: %v", start, err))
			return result
		}
		result.Info = append(result.Info, fmt.Sprintf("✓ Start: %s %s with %d moves, %d captures",
			b.At(start).Piece, start, len(moves), len(engine.CaptureTargets(moves))))
	}

	if openings := openingOccupants(b); openings == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "no occupant has a legal first move")
	} else if openings < b.Occupants() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d/%d occupants cannot open the game", b.Occupants()-openings, b.Occupants()))
	}

	return result
}

// openingOccupants counts the occupants that have at least one move
func openingOccupants(b engine.Board) int {
	count := 0
	for _, p := range b.Positions() {
		moves, err := engine.Generate(b, p, b.At(p).Piece)
		if err == nil && len(moves) > 0 {
			count++
		}
	}
	return count
}

func pieceSummary(b engine.Board) string {
	counts := engine.CountPieces(b)
	var parts []string
	for _, p := range engine.Pieces() {
		if n := counts[p]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s×%d", p, n))
		}
	}
	return strings.Join(parts, ", ")
}

// validateAll prints a report for each file and fails if any is invalid
func validateAll(out io.Writer, files []string) error {
	if len(files) == 0 {
		return errors.New("no level files found")
	}

	invalid := 0
	for _, file := range files {
		result := validateFile(file)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			invalid++
			for _, err := range result.Errors {
				fmt.Fprintln(out, "  ❌ "+err)
			}
		}
		for _, w := range result.Warnings {
			fmt.Fprintln(out, "  ⚠️  "+w)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if invalid > 0 {
		fmt.Fprintln(out, "❌ Some levels have errors")
		return fmt.Errorf("%d of %d levels are invalid", invalid, len(files))
	}
	fmt.Fprintln(out, "✅ All levels are valid!")
	return nil
}

func showLevel(out io.Writer, level *engine.Level) {
	b := level.Board
	fmt.Fprintf(out, "%s: %s (%dx%d, target %d)\n\n", level.ID, level.Name, b.Width(), b.Height(), level.MinMoves)
	fmt.Fprint(out, renderLayout(b))

	counts := engine.CountPieces(b)
	fmt.Fprintln(out)
	for _, rule := range engine.Rules() {
		if counts[rule.Piece] == 0 {
			continue
		}
		fmt.Fprintf(out, "  %c %s %s ×%d: %s\n", rule.Glyph, rule.Emoji, rule.Name, counts[rule.Piece], rule.Description)
	}
}

// renderLayout prints the glyph rows with column and row rulers
func renderLayout(b engine.Board) string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < b.Width(); c++ {
		sb.WriteString(fmt.Sprintf("%d", c%10))
	}
	sb.WriteString("\n")
	for r, row := range b.Layout() {
		sb.WriteString(fmt.Sprintf("%2d %s\n", r, row))
	}
	return sb.String()
}

func listMoves(out io.Writer, b engine.Board, from engine.Position) error {
	moves, err := engine.Generate(b, from, b.At(from).Piece)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s at %s: %d moves\n", b.At(from).Piece, from, len(moves))
	for _, m := range moves {
		fmt.Fprintf(out, "  %s\n", m)
	}
	return nil
}

// parsePosition reads "row,col"
func parsePosition(s string) (engine.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return engine.Position{}, fmt.Errorf("bad position %q, expected row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return engine.Position{}, fmt.Errorf("bad row in %q", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return engine.Position{}, fmt.Errorf("bad col in %q", s)
	}
	return engine.Position{Row: row, Col: col}, nil
}
