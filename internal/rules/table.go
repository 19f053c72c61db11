package rules

// Order is the fixed order in which categories are resolved.
var Order = []Category{
	CategoryDialog,
	CategoryMessageBox,
	CategoryControl,
	CategoryFileDialog,
	CategoryView,
}

// declarationSafe excludes static member access. For View the unqualified
// static form almost always means the WinForms enum (View.Details).
var declarationSafe = []Syntax{
	SyntaxConstructor,
	SyntaxDeclaration,
	SyntaxGenericArg,
	SyntaxArray,
	SyntaxInheritance,
	SyntaxCast,
	SyntaxTypeTest,
	SyntaxTypeof,
}

// Default returns the built-in rule table in resolution order.
func Default() []Rule {
	return []Rule{
		{
			Category:    CategoryDialog,
			Title:       "Dialog box",
			Namespaces:  []string{"Autodesk.Revit.UI", "Microsoft.WindowsAPICodePack.Dialogs"},
			AliasPrefix: "Revit",
			Types: []TypeRule{
				{ShortName: "TaskDialog", Qualified: "Autodesk.Revit.UI.TaskDialog"},
				{ShortName: "TaskDialogResult", Qualified: "Autodesk.Revit.UI.TaskDialogResult"},
				{ShortName: "TaskDialogIcon", Qualified: "Autodesk.Revit.UI.TaskDialogIcon"},
			},
			Syntax:          AllSyntax,
			DiagnosticHints: []string{"Dialog'"},
		},
		{
			Category:    CategoryMessageBox,
			Title:       "Message box",
			Namespaces:  []string{"System.Windows", "System.Windows.Forms"},
			AliasPrefix: "Wpf",
			Types: []TypeRule{
				{ShortName: "MessageBox", Qualified: "System.Windows.MessageBox"},
			},
			Syntax: AllSyntax,
		},
		{
			Category:    CategoryControl,
			Title:       "UI control",
			Namespaces:  []string{"System.Windows.Controls", "System.Windows.Forms"},
			AliasPrefix: "Wpf",
			Types: []TypeRule{
				{ShortName: "Button", Qualified: "System.Windows.Controls.Button"},
				{ShortName: "TextBox", Qualified: "System.Windows.Controls.TextBox"},
				{ShortName: "ComboBox", Qualified: "System.Windows.Controls.ComboBox"},
				{ShortName: "CheckBox", Qualified: "System.Windows.Controls.CheckBox"},
				{ShortName: "Label", Qualified: "System.Windows.Controls.Label"},
				{ShortName: "ListBox", Qualified: "System.Windows.Controls.ListBox"},
				{ShortName: "RadioButton", Qualified: "System.Windows.Controls.RadioButton"},
				{ShortName: "ProgressBar", Qualified: "System.Windows.Controls.ProgressBar"},
				{ShortName: "TreeView", Qualified: "System.Windows.Controls.TreeView"},
				{ShortName: "ListView", Qualified: "System.Windows.Controls.ListView"},
				{ShortName: "UserControl", Qualified: "System.Windows.Controls.UserControl"},
				{ShortName: "Control", Qualified: "System.Windows.Controls.Control"},
			},
			Syntax: AllSyntax,
		},
		{
			Category:    CategoryFileDialog,
			Title:       "File dialog",
			Namespaces:  []string{"Microsoft.Win32", "System.Windows.Forms"},
			AliasPrefix: "Win32",
			Types: []TypeRule{
				{ShortName: "OpenFileDialog", Qualified: "Microsoft.Win32.OpenFileDialog"},
				{ShortName: "SaveFileDialog", Qualified: "Microsoft.Win32.SaveFileDialog"},
				{ShortName: "FileDialog", Qualified: "Microsoft.Win32.FileDialog"},
			},
			Syntax: AllSyntax,
		},
		{
			Category:    CategoryView,
			Title:       "View",
			Namespaces:  []string{"Autodesk.Revit.DB", "System.Windows.Forms"},
			AliasPrefix: "Revit",
			Types: []TypeRule{
				{ShortName: "View", Qualified: "Autodesk.Revit.DB.View"},
			},
			Syntax: declarationSafe,
		},
	}
}

// Filter drops the rules whose category is listed in disabled.
func Filter(all []Rule, disabled []string) []Rule {
	if len(disabled) == 0 {
		return all
	}
	skip := make(map[Category]bool, len(disabled))
	for _, d := range disabled {
		skip[Category(d)] = true
	}
	out := make([]Rule, 0, len(all))
	for _, r := range all {
		if !skip[r.Category] {
			out = append(out, r)
		}
	}
	return out
}

// ByCategory indexes rules by category.
func ByCategory(all []Rule) map[Category]Rule {
	out := make(map[Category]Rule, len(all))
	for _, r := range all {
		out[r.Category] = r
	}
	return out
}
