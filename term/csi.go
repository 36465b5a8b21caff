package term

// handleCSI dispatches a CmdCSI command by its final byte (spec.md
// §4.10, §6 "CSI wire formats").
func (ip *Interpreter) handleCSI(c Command) {
	if c.CSIPrivate {
		ip.handlePrivateCSI(c)
		return
	}
	switch c.CSIFinal {
	case 'A':
		ip.cursorUp(c.Param(0, 1))
	case 'B':
		ip.cursorDown(c.Param(0, 1))
	case 'C':
		ip.cursorRight(c.Param(0, 1))
	case 'D':
		ip.cursorLeft(c.Param(0, 1))
	case 'H', 'f':
		ip.cursorPosition(c.Param(0, 1), c.Param(1, 1))
	case 'G', '`':
		ip.screen.X = clamp(c.Param(0, 1)-1, 0, ip.extent.Width-1)
	case 'd':
		ip.gotoRow(c.Param(0, 1))
	case 'I':
		ip.horizontalTab(c.Param(0, 1))
	case 'Z':
		ip.horizontalTab(-c.Param(0, 1))
	case 'J':
		ip.eraseInDisplay(c.Param(0, 0))
	case 'K':
		ip.eraseInLine(c.Param(0, 0))
	case 'L':
		ip.insertLines(c.Param(0, 1))
	case 'M':
		ip.deleteLines(c.Param(0, 1))
	case '@':
		ip.insertCharacters(c.Param(0, 1))
	case 'P':
		ip.deleteCharacters(c.Param(0, 1))
	case 'X':
		ip.eraseCharacters(c.Param(0, 1))
	case 'm':
		ip.setCharacterAttributes(c)
	case 'r':
		ip.setScrollingRegion(c)
	case 'g':
		ip.tabClear(c.Param(0, 0))
	case 'n':
		ip.handleReport(c.Param(0, 0))
	case 'c':
		if len(c.CSIInter) == 0 {
			ip.reportTerminalID()
		}
	case 't':
		ip.titleManipulation(c.Param(0, 0))
	case 'q':
		if c.CSIInter == " " {
			ip.setCursorStyle(c.Param(0, 0))
		}
	case 'h':
		for _, p := range c.CSIParams {
			if p == 4 {
				ip.insertMode = true
			}
		}
	case 'l':
		for _, p := range c.CSIParams {
			if p == 4 {
				ip.insertMode = false
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (ip *Interpreter) cursorPosition(row, col int) {
	y := row - 1
	if ip.originMode {
		y += ip.extent.Top
	}
	ip.screen.Y = clamp(y, 0, ip.extent.Height-1)
	ip.screen.X = clamp(col-1, 0, ip.extent.Width-1)
}

func (ip *Interpreter) gotoRow(row int) {
	y := row - 1
	if ip.originMode {
		y += ip.extent.Top
	}
	ip.screen.Y = clamp(y, 0, ip.extent.Height-1)
}

// eraseInDisplay implements the 4 DECSED/ED variants (spec.md §4.10).
func (ip *Interpreter) eraseInDisplay(mode int) {
	w, h := ip.extent.Width, ip.extent.Height
	switch mode {
	case 0:
		ip.screen.EraseRect(ip.screen.X, ip.screen.Y, w, ip.screen.Y+1)
		ip.screen.EraseRect(0, ip.screen.Y+1, w, h)
	case 1:
		ip.screen.EraseRect(0, 0, w, ip.screen.Y)
		ip.screen.EraseRect(0, ip.screen.Y, ip.screen.X+1, ip.screen.Y+1)
	case 2:
		ip.screen.EraseRect(0, 0, w, h)
	case 3:
		ip.screen.EraseRect(0, 0, w, h)
	}
}

// eraseInLine implements the 3 EL variants.
func (ip *Interpreter) eraseInLine(mode int) {
	w := ip.extent.Width
	switch mode {
	case 0:
		ip.screen.EraseRect(ip.screen.X, ip.screen.Y, w, ip.screen.Y+1)
	case 1:
		ip.screen.EraseRect(0, ip.screen.Y, ip.screen.X+1, ip.screen.Y+1)
	case 2:
		ip.screen.EraseRect(0, ip.screen.Y, w, ip.screen.Y+1)
	}
}

// insertLines/deleteLines are gated to the scrolling region and a no-op
// outside it (spec.md §4.10).
func (ip *Interpreter) insertLines(n int) {
	if ip.screen.Y < ip.extent.Top || ip.screen.Y >= ip.extent.Bottom {
		return
	}
	for i := 0; i < n; i++ {
		ip.screen.ScrollDown(ip.screen.Y, ip.extent.Bottom)
	}
}

func (ip *Interpreter) deleteLines(n int) {
	if ip.screen.Y < ip.extent.Top || ip.screen.Y >= ip.extent.Bottom {
		return
	}
	for i := 0; i < n; i++ {
		ip.screen.DoScrollUp(ip.screen.Y, ip.extent.Bottom)
	}
}

func (ip *Interpreter) insertCharacters(n int) {
	ip.screen.DoShiftRowRight(ip.screen.Y, ip.screen.X, n)
}

func (ip *Interpreter) deleteCharacters(n int) {
	ip.screen.DoShiftRowLeft(ip.screen.Y, ip.screen.X, n)
}

func (ip *Interpreter) eraseCharacters(n int) {
	end := ip.screen.X + n
	if end > ip.extent.Width {
		end = ip.extent.Width
	}
	ip.screen.EraseRect(ip.screen.X, ip.screen.Y, end, ip.screen.Y+1)
}

// setScrollingRegion implements DECSTBM; origin mode relocates the
// cursor to (0,top) (spec.md §4.10 "SetScrollingRegion").
func (ip *Interpreter) setScrollingRegion(c Command) {
	top := c.Param(0, 1) - 1
	bottom := c.Param(1, ip.extent.Height)
	if top < 0 {
		top = 0
	}
	if bottom > ip.extent.Height {
		bottom = ip.extent.Height
	}
	if top >= bottom {
		return
	}
	ip.extent.Top, ip.extent.Bottom = top, bottom
	if ip.originMode {
		ip.screen.X, ip.screen.Y = 0, ip.extent.Top
	} else {
		ip.screen.X, ip.screen.Y = 0, 0
	}
}

func (ip *Interpreter) tabClear(mode int) {
	switch mode {
	case 0:
		ip.clearTabStop(ip.screen.X)
	case 3:
		for i := range ip.tabStops {
			ip.tabStops[i] = 0
		}
	}
}

func (ip *Interpreter) handleReport(kind int) {
	switch kind {
	case 5:
		ip.reportOK()
	case 6:
		ip.reportCursorPosition()
	}
}

func (ip *Interpreter) setCursorStyle(n int) {
	if ip.cb.CursorStyleChanged != nil {
		ip.cb.CursorStyleChanged(CursorStyle(n), true)
	}
}

// setCharacterAttributes decodes SGR parameters, including the 8-bit
// (38/48;5;n) and 24-bit (38/48;2;r;g;b) color extensions, quantised to
// ColorRef's 256-slot indexed form (spec.md §6 "SGR color decode").
func (ip *Interpreter) setCharacterAttributes(c Command) {
	params := c.CSIParams
	if len(params) == 0 {
		ip.rendition = CharacterAttributes{}
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			ip.rendition = CharacterAttributes{}
		case p == 1:
			ip.rendition.Bold = true
		case p == 2:
			ip.rendition.Faint = true
		case p == 3:
			ip.rendition.Italic = true
		case p == 4:
			ip.rendition.Underline = true
		case p == 5:
			ip.rendition.Blink = true
		case p == 7:
			ip.rendition.Reverse = true
		case p == 8:
			ip.rendition.Invisible = true
		case p == 9:
			ip.rendition.Strike = true
		case p == 22:
			ip.rendition.Bold, ip.rendition.Faint = false, false
		case p == 23:
			ip.rendition.Italic = false
		case p == 24:
			ip.rendition.Underline = false
		case p == 25:
			ip.rendition.Blink = false
		case p == 27:
			ip.rendition.Reverse = false
		case p == 28:
			ip.rendition.Invisible = false
		case p == 29:
			ip.rendition.Strike = false
		case p >= 30 && p <= 37:
			ip.rendition.Foreground = ColorRef{Kind: ColorBasic, Idx: uint8(p - 30)}
		case p == 38:
			n, ref := parseExtendedColor(params, i)
			ip.rendition.Foreground = ref
			i += n
		case p == 39:
			ip.rendition.Foreground = ColorRef{}
		case p >= 40 && p <= 47:
			ip.rendition.Background = ColorRef{Kind: ColorBasic, Idx: uint8(p - 40)}
		case p == 48:
			n, ref := parseExtendedColor(params, i)
			ip.rendition.Background = ref
			i += n
		case p == 49:
			ip.rendition.Background = ColorRef{}
		case p >= 90 && p <= 97:
			ip.rendition.Foreground = ColorRef{Kind: ColorBasic, Idx: uint8(p - 90 + 8)}
		case p >= 100 && p <= 107:
			ip.rendition.Background = ColorRef{Kind: ColorBasic, Idx: uint8(p - 100 + 8)}
		}
	}
}

// parseExtendedColor consumes the 38/48;5;n or 38/48;2;r;g;b sub-params
// starting right after the leading 38/48, returning how many extra
// params were consumed and the quantised ColorRef.
func parseExtendedColor(params []int, i int) (int, ColorRef) {
	if i+1 >= len(params) {
		return 0, ColorRef{}
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			return 2, ColorRef{Kind: ColorIndexed, Idx: uint8(params[i+2])}
		}
		return 1, ColorRef{}
	case 2:
		if i+4 < len(params) {
			r, g, b := params[i+2], params[i+3], params[i+4]
			return 4, ColorRef{Kind: ColorIndexed, Idx: quantizeRGB(r, g, b)}
		}
		return 1, ColorRef{}
	}
	return 1, ColorRef{}
}

// quantizeRGB maps a 24-bit color onto the 6x6x6 color cube of the
// standard 256-color palette (indices 16-231).
func quantizeRGB(r, g, b int) uint8 {
	q := func(v int) int {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return v * 5 / 255
	}
	ri, gi, bi := q(r), q(g), q(b)
	return uint8(16 + 36*ri + 6*gi + bi)
}
