package a11y

// Role classifies an accessible object. The set is closed; unknown roles
// decode to RoleUnknown rather than failing.
type Role int

// Role constants. The ordering is stable and part of the decode contract.
const (
	RoleInvalid Role = iota
	RoleApplication
	RoleWindow
	RoleFrame
	RoleDialog
	RoleDocument
	RoleParagraph
	RoleHeading
	RoleLink
	RoleButton
	RoleCheckBox
	RoleRadioButton
	RoleComboBox
	RoleList
	RoleListItem
	RoleTable
	RoleTableCell
	RoleText
	RoleEntry
	RoleLabel
	RoleImage
	RoleMenuBar
	RoleMenu
	RoleMenuItem
	RoleScrollBar
	RoleStatusBar
	RoleToolBar
	RoleTreeView
	RoleTreeItem
	RoleUnknown
)

var roleNames = map[Role]string{
	RoleInvalid:     "invalid",
	RoleApplication: "application",
	RoleWindow:      "window",
	RoleFrame:       "frame",
	RoleDialog:      "dialog",
	RoleDocument:    "document",
	RoleParagraph:   "paragraph",
	RoleHeading:     "heading",
	RoleLink:        "link",
	RoleButton:      "button",
	RoleCheckBox:    "check box",
	RoleRadioButton: "radio button",
	RoleComboBox:    "combo box",
	RoleList:        "list",
	RoleListItem:    "list item",
	RoleTable:       "table",
	RoleTableCell:   "table cell",
	RoleText:        "text",
	RoleEntry:       "entry",
	RoleLabel:       "label",
	RoleImage:       "image",
	RoleMenuBar:     "menu bar",
	RoleMenu:        "menu",
	RoleMenuItem:    "menu item",
	RoleScrollBar:   "scroll bar",
	RoleStatusBar:   "status bar",
	RoleToolBar:     "tool bar",
	RoleTreeView:    "tree view",
	RoleTreeItem:    "tree item",
	RoleUnknown:     "unknown",
}

// Name returns the human-readable role name used in speech output.
func (r Role) Name() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return roleNames[RoleUnknown]
}

// String returns the role name.
func (r Role) String() string {
	return r.Name()
}

// RoleFromOrdinal maps a wire ordinal to a Role, clamping out-of-range
// values to RoleUnknown.
func RoleFromOrdinal(n int) Role {
	if n < int(RoleInvalid) || n > int(RoleUnknown) {
		return RoleUnknown
	}
	return Role(n)
}
