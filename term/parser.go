package term

import (
	"unicode/utf8"
)

// subState identifies one of the Parser's six sub-states (spec.md
// §4.9).
type subState int

const (
	stateText subState = iota
	stateControl
	stateEsc
	stateOSC
	stateCSI
	stateDCS
)

const maxTextAccumulate = 16 * 1024

// Parser is the single-threaded byte eater of spec.md §4.9. Feed bytes
// via Feed; it returns the Commands produced by consuming them. No
// screen interaction happens here.
type Parser struct {
	state subState

	textBuf []byte

	oscBuf    []byte
	oscEscPending bool

	csiPrivate bool
	csiParamBuf []byte
	csiInterBuf []byte

	dcsBuf []byte
}

// NewParser creates a Parser starting in the Text sub-state.
func NewParser() *Parser {
	return &Parser{state: stateText}
}

// Feed consumes all of b and returns every Command produced.
func (p *Parser) Feed(b []byte) []Command {
	var out []Command
	for i := 0; i < len(b); i++ {
		c := b[i]
		// consume loop: a sub-state's consume may decline the byte
		// (did-consume=false), in which case the same byte is re-routed
		// through the newly entered state rather than dropped (spec.md
		// §4.9 "drain-one-byte-per-transition is forbidden").
		for {
			consumed, cmds := p.dispatch(c)
			out = append(out, cmds...)
			if consumed {
				break
			}
		}
	}
	return out
}

// Flush forces any accumulated Text to be emitted (e.g. at EOF or when
// the caller needs synchronous delivery without waiting for 16 KiB).
func (p *Parser) Flush() []Command {
	if p.state == stateText && len(p.textBuf) > 0 {
		return p.flushText()
	}
	return nil
}

func (p *Parser) dispatch(c byte) (bool, []Command) {
	switch p.state {
	case stateText:
		return p.consumeText(c)
	case stateControl:
		return p.consumeControl(c)
	case stateEsc:
		return p.consumeEsc(c)
	case stateOSC:
		return p.consumeOSC(c)
	case stateCSI:
		return p.consumeCSI(c)
	case stateDCS:
		return p.consumeDCS(c)
	default:
		return true, nil
	}
}

func (p *Parser) enterControl() { p.state = stateControl }

func (p *Parser) consumeText(c byte) (bool, []Command) {
	if c < 32 {
		var cmds []Command
		if len(p.textBuf) > 0 {
			cmds = p.flushText()
		}
		p.enterControl()
		return false, cmds
	}
	p.textBuf = append(p.textBuf, c)
	if len(p.textBuf) >= maxTextAccumulate {
		return true, p.flushText()
	}
	return true, nil
}

// flushText emits only complete UTF-8 sequences; a trailing partial
// sequence is carried over to the next flush (spec.md §4.9 "Text").
func (p *Parser) flushText() []Command {
	buf := p.textBuf
	cut := len(buf)

	// Walk back at most one rune's worth of bytes to find where a
	// trailing incomplete sequence begins.
	start := cut - 4
	if start < 0 {
		start = 0
	}
	for i := cut - 1; i >= start; i-- {
		if utf8.RuneStart(buf[i]) {
			if !utf8.FullRune(buf[i:cut]) {
				cut = i
			}
			break
		}
	}

	if cut == 0 {
		return nil
	}
	text := string(buf[:cut])
	rest := append([]byte(nil), buf[cut:]...)
	p.textBuf = rest
	return []Command{{Kind: CmdText, Text: text}}
}

func (p *Parser) consumeControl(c byte) (bool, []Command) {
	switch c {
	case 0x08:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0BS}}
	case 0x09:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0HT}}
	case 0x0A, 0x0B, 0x0C:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0LF}}
	case 0x0D:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0CR}}
	case 0x0E:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0SO}}
	case 0x0F:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0SI}}
	case 0x07:
		p.state = stateText
		return true, []Command{{Kind: CmdC0, C0: C0BEL}}
	case 0x1B:
		p.state = stateEsc
		return true, nil
	default:
		p.state = stateText
		return true, nil
	}
}

func (p *Parser) consumeEsc(c byte) (bool, []Command) {
	switch c {
	case '7':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscDECSC}}
	case '8':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscDECRC}}
	case 'D':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscIND}}
	case 'E':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscNEL}}
	case 'H':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscHTS}}
	case 'M':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscRI}}
	case 'c':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscRIS}}
	case '=':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscNumericKeypad}}
	case '>':
		p.state = stateText
		return true, []Command{{Kind: CmdEscSimple, Esc: EscApplKeypad}}
	case '#':
		// only #8 (DECALN) is recognised; the next byte decides.
		p.state = stateDCS // reuse DCS's two-byte collector path
		p.dcsBuf = p.dcsBuf[:0]
		p.dcsBuf = append(p.dcsBuf, '#')
		return true, nil
	case ']':
		p.state = stateOSC
		p.oscBuf = p.oscBuf[:0]
		p.oscEscPending = false
		return true, nil
	case '[':
		p.state = stateCSI
		p.csiPrivate = false
		p.csiParamBuf = p.csiParamBuf[:0]
		p.csiInterBuf = p.csiInterBuf[:0]
		return true, nil
	case '(', ')', '*', '+':
		p.state = stateDCS
		p.dcsBuf = p.dcsBuf[:0]
		p.dcsBuf = append(p.dcsBuf, c)
		return true, nil
	default:
		p.state = stateText
		return true, nil
	}
}

func (p *Parser) consumeOSC(c byte) (bool, []Command) {
	if p.oscEscPending {
		p.oscEscPending = false
		if c == '\\' {
			p.state = stateText
			return true, p.emitOSC()
		}
		// Not a genuine ST; treat the ESC as data and reprocess c.
		p.oscBuf = append(p.oscBuf, 0x1B)
		return false, nil
	}
	switch c {
	case 0x07:
		p.state = stateText
		return true, p.emitOSC()
	case 0x1B:
		p.oscEscPending = true
		return true, nil
	default:
		p.oscBuf = append(p.oscBuf, c)
		return true, nil
	}
}

func (p *Parser) emitOSC() []Command {
	s := string(p.oscBuf)
	num := 0
	text := s
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			text = s[i+1:]
			break
		}
		if s[i] < '0' || s[i] > '9' {
			break
		}
		num = num*10 + int(s[i]-'0')
	}
	return []Command{{Kind: CmdOSC, OSCNum: num, OSCText: text}}
}

func isCSIIntermediate(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == ';' || c == '?' || c == '>' || c == '=' || c == '!' || c == '"' || c == '\'' || c == '$' || c == '#' || c == '*' || c == ' ':
		return true
	}
	return false
}

func isCSIFinal(c byte) bool {
	if c >= '@' && c <= '~' {
		return true
	}
	return false
}

func (p *Parser) consumeCSI(c byte) (bool, []Command) {
	if isCSIFinal(c) && !isCSIIntermediate(c) {
		p.state = stateText
		return true, p.emitCSI(c)
	}
	if c == '?' && len(p.csiParamBuf) == 0 && len(p.csiInterBuf) == 0 {
		p.csiPrivate = true
		return true, nil
	}
	if isCSIIntermediate(c) {
		if c >= '0' && c <= '9' || c == ';' {
			p.csiParamBuf = append(p.csiParamBuf, c)
		} else {
			p.csiInterBuf = append(p.csiInterBuf, c)
		}
		return true, nil
	}
	// Unexpected byte inside CSI: abort back to Text without emitting.
	p.state = stateText
	return false, nil
}

func (p *Parser) emitCSI(final byte) []Command {
	params := parseCSIParams(p.csiParamBuf)
	return []Command{{
		Kind:       CmdCSI,
		CSIPrivate: p.csiPrivate,
		CSIParams:  params,
		CSIInter:   string(p.csiInterBuf),
		CSIFinal:   final,
	}}
}

func parseCSIParams(buf []byte) []int {
	var params []int
	cur := 0
	has := false
	for _, c := range buf {
		if c == ';' {
			params = append(params, cur)
			cur = 0
			has = false
			continue
		}
		cur = cur*10 + int(c-'0')
		has = true
	}
	if has || len(params) > 0 {
		params = append(params, cur)
	}
	if len(params) > 8 {
		params = params[:8]
	}
	return params
}

// consumeDCS collects a two-character suffix for character-set
// designation (spec.md §4.9 "DCS. Used only for character-set
// designation").
func (p *Parser) consumeDCS(c byte) (bool, []Command) {
	p.dcsBuf = append(p.dcsBuf, c)
	if len(p.dcsBuf) < 2 {
		return true, nil
	}
	p.state = stateText
	if p.dcsBuf[0] == '#' {
		if p.dcsBuf[1] == '8' {
			return true, []Command{{Kind: CmdDECALN}}
		}
		return true, nil
	}
	slot := map[byte]int{'(': 0, ')': 1, '*': 2, '+': 3}[p.dcsBuf[0]]
	return true, []Command{{Kind: CmdCharsetDesignation, CharsetSlot: slot, CharsetFinal: p.dcsBuf[1]}}
}
