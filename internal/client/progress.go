package client

import "io"

// progressReader reports cumulative bytes read from r. With an unknown total
// each count is reported one read late, so the final (n, n) call still
// increases.
type progressReader struct {
	r        io.Reader
	total    int64
	fn       ProgressFunc
	sent     int64
	reported int64
	done     bool
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, fn: fn, reported: -1}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		if p.total < 0 && p.sent > p.reported {
			p.report(p.sent, -1)
		}
		p.sent += int64(n)
		if p.total >= 0 {
			p.report(p.sent, p.total)
		}
	}
	if err == io.EOF {
		p.finish()
	}
	return n, err
}

// finish emits the closing (current == total) call if it is still owed.
func (p *progressReader) finish() {
	if p.done {
		return
	}
	p.done = true
	total := p.total
	if total < 0 {
		total = p.sent
	}
	if p.reported < p.sent || p.reported < 0 {
		p.report(p.sent, total)
	}
}

func (p *progressReader) report(current, total int64) {
	p.reported = current
	if p.fn != nil {
		p.fn(current, total)
	}
}
