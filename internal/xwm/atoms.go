package xwm

import "github.com/bnema/satellite/internal/x11wire"

// atomNames lists every atom the window manager needs at startup,
// interned once via the blocking InternAtomSync helper (spec.md §4.4
// properties plus the EWMH hint set it publishes).
var atomNames = []string{
	"WM_PROTOCOLS",
	"WM_DELETE_WINDOW",
	"WM_TAKE_FOCUS",
	"WM_CLASS",
	"WM_NAME",
	"WM_NORMAL_HINTS",
	"WM_TRANSIENT_FOR",
	"WM_STATE",
	"UTF8_STRING",
	"STRING",
	"CARDINAL",
	"ATOM",
	"WINDOW",
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_STATE_MAXIMIZED_VERT",
	"_NET_WM_STATE_MAXIMIZED_HORZ",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WORKAREA",
	"_NET_CURRENT_DESKTOP",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_MENU",
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
	"_NET_WM_WINDOW_TYPE_POPUP_MENU",
	"_NET_WM_WINDOW_TYPE_TOOLTIP",
	"_NET_WM_WINDOW_TYPE_COMBO",
	"_XSETTINGS_SETTINGS",
	"WL_SURFACE_ID",
	"WL_SURFACE_SERIAL",

	// Clipboard & DnD bridge (spec.md §4.6).
	"CLIPBOARD",
	"PRIMARY",
	"TARGETS",
	"MULTIPLE",
	"text/plain;charset=utf-8",
	"text/uri-list",
	"XdndAware",
	"XdndEnter",
	"XdndPosition",
	"XdndStatus",
	"XdndDrop",
	"XdndLeave",
	"XdndFinished",
	"XdndSelection",
	"XdndTypeList",
	"XdndActionCopy",
	"_SATELLITE_CLIPBOARD_TARGETS",
	"_SATELLITE_CLIPBOARD_TRANSFER",
}

// atoms holds the resolved atom values, named fields for the ones
// referenced often enough in the dispatch code to read better than a
// map lookup; the rest stay in byName for property decoding/lookup.
type atoms struct {
	byName map[string]uint32

	wmProtocols    uint32
	wmDeleteWindow uint32
	wmTakeFocus    uint32
	wmClass        uint32
	wmName         uint32
	wmNormalHints  uint32
	wmTransientFor uint32
	wmState        uint32
	utf8String     uint32

	netSupported         uint32
	netSupportingWMCheck uint32
	netWMName            uint32
	netActiveWindow      uint32
	netClientList        uint32
	netWMState           uint32
	netWMStateFullscreen uint32
	netWMStateMaxVert    uint32
	netWMStateMaxHorz    uint32
	netWMStateHidden     uint32
	netWorkarea          uint32
	netCurrentDesktop    uint32
	netNumberOfDesktops  uint32
	netWMWindowType      uint32
	typeMenu             uint32
	typeDropdownMenu     uint32
	typePopupMenu        uint32
	typeTooltip          uint32
	typeCombo            uint32

	xsettingsSettings uint32
	wlSurfaceID       uint32
	wlSurfaceSerial   uint32

	clipboard uint32
	primary   uint32
	targets   uint32
	multiple  uint32
	mimeUTF8Plain uint32
	mimeURIList   uint32

	xdndAware      uint32
	xdndEnter      uint32
	xdndPosition   uint32
	xdndStatus     uint32
	xdndDrop       uint32
	xdndLeave      uint32
	xdndFinished   uint32
	xdndSelection  uint32
	xdndTypeList   uint32
	xdndActionCopy uint32

	clipboardTargetsProp  uint32
	clipboardTransferProp uint32

	wmSn       uint32 // WM_Sn for this display number
	xsettingsS uint32 // _XSETTINGS_S0
}

func internAtoms(conn *x11wire.Conn, displayNum string) (*atoms, error) {
	a := &atoms{byName: make(map[string]uint32, len(atomNames)+2)}
	for _, name := range atomNames {
		v, err := conn.InternAtomSync(name, false)
		if err != nil {
			return nil, err
		}
		a.byName[name] = v
	}
	wmSn, err := conn.InternAtomSync("WM_S"+displayNum, false)
	if err != nil {
		return nil, err
	}
	xsettingsS, err := conn.InternAtomSync("_XSETTINGS_S0", false)
	if err != nil {
		return nil, err
	}
	a.wmSn = wmSn
	a.xsettingsS = xsettingsS

	a.wmProtocols = a.byName["WM_PROTOCOLS"]
	a.wmDeleteWindow = a.byName["WM_DELETE_WINDOW"]
	a.wmTakeFocus = a.byName["WM_TAKE_FOCUS"]
	a.wmClass = a.byName["WM_CLASS"]
	a.wmName = a.byName["WM_NAME"]
	a.wmNormalHints = a.byName["WM_NORMAL_HINTS"]
	a.wmTransientFor = a.byName["WM_TRANSIENT_FOR"]
	a.wmState = a.byName["WM_STATE"]
	a.utf8String = a.byName["UTF8_STRING"]

	a.netSupported = a.byName["_NET_SUPPORTED"]
	a.netSupportingWMCheck = a.byName["_NET_SUPPORTING_WM_CHECK"]
	a.netWMName = a.byName["_NET_WM_NAME"]
	a.netActiveWindow = a.byName["_NET_ACTIVE_WINDOW"]
	a.netClientList = a.byName["_NET_CLIENT_LIST"]
	a.netWMState = a.byName["_NET_WM_STATE"]
	a.netWMStateFullscreen = a.byName["_NET_WM_STATE_FULLSCREEN"]
	a.netWMStateMaxVert = a.byName["_NET_WM_STATE_MAXIMIZED_VERT"]
	a.netWMStateMaxHorz = a.byName["_NET_WM_STATE_MAXIMIZED_HORZ"]
	a.netWMStateHidden = a.byName["_NET_WM_STATE_HIDDEN"]
	a.netWorkarea = a.byName["_NET_WORKAREA"]
	a.netCurrentDesktop = a.byName["_NET_CURRENT_DESKTOP"]
	a.netNumberOfDesktops = a.byName["_NET_NUMBER_OF_DESKTOPS"]
	a.netWMWindowType = a.byName["_NET_WM_WINDOW_TYPE"]
	a.typeMenu = a.byName["_NET_WM_WINDOW_TYPE_MENU"]
	a.typeDropdownMenu = a.byName["_NET_WM_WINDOW_TYPE_DROPDOWN_MENU"]
	a.typePopupMenu = a.byName["_NET_WM_WINDOW_TYPE_POPUP_MENU"]
	a.typeTooltip = a.byName["_NET_WM_WINDOW_TYPE_TOOLTIP"]
	a.typeCombo = a.byName["_NET_WM_WINDOW_TYPE_COMBO"]

	a.xsettingsSettings = a.byName["_XSETTINGS_SETTINGS"]
	a.wlSurfaceID = a.byName["WL_SURFACE_ID"]
	a.wlSurfaceSerial = a.byName["WL_SURFACE_SERIAL"]

	a.clipboard = a.byName["CLIPBOARD"]
	a.primary = a.byName["PRIMARY"]
	a.targets = a.byName["TARGETS"]
	a.multiple = a.byName["MULTIPLE"]
	a.mimeUTF8Plain = a.byName["text/plain;charset=utf-8"]
	a.mimeURIList = a.byName["text/uri-list"]

	a.xdndAware = a.byName["XdndAware"]
	a.xdndEnter = a.byName["XdndEnter"]
	a.xdndPosition = a.byName["XdndPosition"]
	a.xdndStatus = a.byName["XdndStatus"]
	a.xdndDrop = a.byName["XdndDrop"]
	a.xdndLeave = a.byName["XdndLeave"]
	a.xdndFinished = a.byName["XdndFinished"]
	a.xdndSelection = a.byName["XdndSelection"]
	a.xdndTypeList = a.byName["XdndTypeList"]
	a.xdndActionCopy = a.byName["XdndActionCopy"]

	a.clipboardTargetsProp = a.byName["_SATELLITE_CLIPBOARD_TARGETS"]
	a.clipboardTransferProp = a.byName["_SATELLITE_CLIPBOARD_TRANSFER"]
	return a, nil
}

// isPopupWindowType reports whether a _NET_WM_WINDOW_TYPE atom value
// puts a window in the popup classification (spec.md §4.4 step 2).
// Zero (no _NET_WM_WINDOW_TYPE value) is never a popup type.
func (a *atoms) isPopupWindowType(t uint32) bool {
	if t == 0 {
		return false
	}
	switch t {
	case a.typeMenu, a.typeDropdownMenu, a.typePopupMenu, a.typeTooltip, a.typeCombo:
		return true
	default:
		return false
	}
}
