package align

import "fmt"

// Position points at a rune inside the part list
type Position struct {
	Part int
	Char int
}

// Before orders positions by part, then by character
func (p Position) Before(q Position) bool {
	if p.Part != q.Part {
		return p.Part < q.Part
	}
	return p.Char < q.Char
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Part, p.Char)
}

// prevPos steps one rune back, skipping empty parts. It returns a position
// with Part -1 once the start of the transcript is passed.
func (a *Aligner) prevPos(p Position) Position {
	p.Char--
	for p.Char < 0 {
		p.Part--
		if p.Part < 0 {
			return Position{Part: -1, Char: -1}
		}
		p.Char = len(a.texts[p.Part]) - 1
	}
	return p
}

// nextPos steps one rune forward, skipping empty parts. It returns a position
// with Part == len(parts) once the end is passed.
func (a *Aligner) nextPos(p Position) Position {
	p.Char++
	for p.Char >= len(a.texts[p.Part]) {
		p.Part++
		if p.Part >= len(a.texts) {
			return Position{Part: len(a.texts), Char: 0}
		}
		p.Char = 0
	}
	return p
}

func (a *Aligner) valid(p Position) bool {
	return p.Part >= 0 && p.Part < len(a.texts) && p.Char >= 0 && p.Char < len(a.texts[p.Part])
}

func (a *Aligner) isSentenceEnd(p Position) bool {
	return a.valid(p) && a.texts[p.Part][p.Char] == '.'
}
