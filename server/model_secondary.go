package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zucenko/stakeroom/model"
)

// LevelSource hands out the raw level text by level number.
type LevelSource interface {
	Level(ctx context.Context, number int) ([]byte, error)
}

type LevelFunc func(ctx context.Context, number int) ([]byte, error)

func (f LevelFunc) Level(ctx context.Context, number int) ([]byte, error) {
	return f(ctx, number)
}

// DirLevels reads "<Dir>/<number>.txt".
type DirLevels struct {
	Dir string
}

func (d DirLevels) Level(ctx context.Context, number int) ([]byte, error) {
	if number <= 0 {
		return nil, fmt.Errorf("%w: bad level number %d", ErrAssetUnavailable, number)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}
	b, err := os.ReadFile(filepath.Join(d.Dir, strconv.Itoa(number)+".txt"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}
	return b, nil
}

const TILE_SIZE = 16

var COLLECTIBLE_POINTS = map[string]int{
	"TR": 1000,
	"I0": 50,
	"I1": 100,
	"I2": 150,
	"I3": 200,
	"I4": 300,
	"I5": 500,
}

type Cell struct {
	Col, Row int
}

// Level is what the server needs to know about a level file: where things
// are and which of them can be claimed.
type Level struct {
	Width, Height int
	Spawn         Cell
	Door          *Cell
	Collectibles  []model.Collectible
	PowerUps      []model.PowerUp
	Traps         []model.Trap
}

func ParseLevel(text string) Level {
	lv, _ := read(strings.NewReader(text))
	return lv
}

// read parses rows of 3-character cells. Blank lines are skipped and do not
// count as rows. Item ids are the pixel centre "x,y" the client derives.
func read(reader io.Reader) (lv Level, err error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	row := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		col := 0
		for i := 0; i < len(line); i += 3 {
			end := i + 3
			if end > len(line) {
				end = len(line)
			}
			code := strings.TrimSpace(line[i:end])
			placeCell(&lv, code, col, row)
			col++
		}
		if col > lv.Width {
			lv.Width = col
		}
		row++
	}
	lv.Height = row
	return lv, scanner.Err()
}

func placeCell(lv *Level, code string, col, row int) {
	if code == "" {
		return
	}
	x := col*TILE_SIZE + TILE_SIZE/2
	y := (row+1)*TILE_SIZE + TILE_SIZE/2
	id := strconv.Itoa(x) + "," + strconv.Itoa(y)
	switch {
	case code[0] == 'p':
		lv.Spawn = Cell{Col: col, Row: row}
	case code == "DO":
		lv.Door = &Cell{Col: col, Row: row}
	case code == "FR":
		lv.Traps = append(lv.Traps, model.Trap{Id: id, Type: code, X: float64(x), Y: float64(y)})
	case code == "TR", code[0] == 'I':
		points, ok := COLLECTIBLE_POINTS[code]
		if !ok {
			points = COLLECTIBLE_DELTA
		}
		lv.Collectibles = append(lv.Collectibles, model.Collectible{
			Id: id, Type: code, X: float64(x), Y: float64(y), Points: points,
		})
	}
}
