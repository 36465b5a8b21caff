package term

// handlePrivateCSI dispatches DEC-private CSI sequences: mode changes
// (SM/RM with a '?' prefix, finals 'h' and 'l'; spec.md §4.10
// "ChangeMode"). Other private finals are ignored.
func (ip *Interpreter) handlePrivateCSI(c Command) {
	switch c.CSIFinal {
	case 'h':
		for _, p := range c.CSIParams {
			ip.setPrivateMode(p, true)
		}
	case 'l':
		for _, p := range c.CSIParams {
			ip.setPrivateMode(p, false)
		}
	}
}

// setPrivateMode covers the DEC private modes spec.md §4.10 names
// explicitly: ?25 cursor visibility, ?47/?1049 alternate screen, ?2004
// bracketed paste, ?1000/?1002/?1003 mouse modes, ?6 origin mode, ?7
// autowrap, ?3 80<->132 column switch (the interpreter clears the
// screen, resets the margins and homes the cursor; it keeps no mode bit
// and does not change the column count, which is the host's concern).
func (ip *Interpreter) setPrivateMode(mode int, set bool) {
	switch mode {
	case 25:
		if ip.cursorShown != set {
			ip.cursorShown = set
			if ip.cb.ShownCursorChanged != nil {
				ip.cb.ShownCursorChanged(set)
			}
		}
	case 47, 1049:
		ip.screen.ToggleAlternateScreen(set)
		if set && mode == 1049 {
			ip.saveState()
			ip.screen.X, ip.screen.Y = 0, 0
		} else if !set && mode == 1049 {
			ip.restoreState()
		}
	case 2004:
		ip.bracketedPaste = set
	case 1000:
		ip.setMouseMode(MouseX10, set)
	case 1002:
		ip.setMouseMode(MouseNormal, set)
	case 1003:
		ip.setMouseMode(MouseNormal, set)
	case 1005:
		ip.setMouseMode(MouseUTF8, set)
	case 1006:
		ip.setMouseMode(MouseSGR, set)
	case 6:
		ip.originMode = set
		if set {
			ip.screen.X, ip.screen.Y = 0, ip.extent.Top
		} else {
			ip.screen.X, ip.screen.Y = 0, 0
		}
	case 7:
		ip.autoWrap = set
	case 3:
		// 80<->132 column switch clears the screen and resets margins,
		// matching DECCOLM; actual width change is the host's call via
		// Screen.ResizeScreen.
		ip.screen.EraseRect(0, 0, ip.extent.Width, ip.extent.Height)
		ip.extent.Top, ip.extent.Bottom = 0, ip.extent.Height
		ip.screen.X, ip.screen.Y = 0, 0
	}
}

func (ip *Interpreter) setMouseMode(mode MouseMode, set bool) {
	if set {
		ip.mouseMode = mode
	} else if ip.mouseMode == mode {
		ip.mouseMode = MouseOff
	}
	if ip.cb.RequestedMouseEventsChanged != nil {
		ip.cb.RequestedMouseEventsChanged(ip.mouseMode)
	}
}
