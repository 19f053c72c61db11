package resolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/conflictfix/internal/fsops"
	"github.com/danieljhkim/conflictfix/internal/lexer"
	"github.com/danieljhkim/conflictfix/internal/logging"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

const messageBoxSource = `using System;
using System.Windows;
using System.Windows.Forms;

namespace Demo
{
    public class Foo
    {
        public void Run()
        {
            MessageBox.Show("x");
        }
    }
}
`

const messageBoxResolved = `using System;
using System.Windows;
using System.Windows.Forms;
using WpfMessageBox = System.Windows.MessageBox;

namespace Demo
{
    public class Foo
    {
        public void Run()
        {
            WpfMessageBox.Show("x");
        }
    }
}
`

const controlSource = `using System.Collections.Generic;
using System.Windows.Controls;
using System.Windows.Forms;

class Panel : UserControl, IDisposable
{
    private Button ok = new Button();
    private List<TextBox> boxes;
    private Label[] labels;

    void M(object o)
    {
        var b = o as Button;
        if (o is CheckBox) { }
        var t = typeof(ComboBox);
        var c = (ListBox)o;
        string s = "Button";
        // Button in a comment
        var q = System.Windows.Forms.Button.DefaultBackColor;
    }
}
`

func newResolver(t *testing.T, c rules.Category) *Resolver {
	t.Helper()
	rule, ok := rules.ByCategory(rules.Default())[c]
	require.True(t, ok, "missing rule for %s", c)
	cache, err := lexer.NewCache(16)
	require.NoError(t, err)
	return New(rule, fsops.NewRealFS(), cache, logging.Discard())
}

func TestResolve_MessageBoxScenario(t *testing.T) {
	r := newResolver(t, rules.CategoryMessageBox)

	out, aliases := r.Resolve(messageBoxSource)
	assert.Equal(t, messageBoxResolved, out)
	assert.Equal(t, []string{"WpfMessageBox"}, aliases)

	again, aliases := r.Resolve(out)
	assert.Equal(t, out, again)
	assert.Empty(t, aliases)
}

func TestResolve_ReferenceRightAfterUsings(t *testing.T) {
	r := newResolver(t, rules.CategoryMessageBox)

	src := "using System.Windows;\nusing System.Windows.Forms;\nMessageBox.Show(\"x\");\n"
	want := "using System.Windows;\nusing System.Windows.Forms;\nusing WpfMessageBox = System.Windows.MessageBox;\nWpfMessageBox.Show(\"x\");\n"

	out, aliases := r.Resolve(src)
	assert.Equal(t, want, out)
	assert.Equal(t, []string{"WpfMessageBox"}, aliases)

	again, aliases := r.Resolve(out)
	assert.Equal(t, out, again)
	assert.Empty(t, aliases)
}

func TestDetect_MessageBox(t *testing.T) {
	r := newResolver(t, rules.CategoryMessageBox)

	records := r.Detect(messageBoxSource)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, rules.CategoryMessageBox, rec.Category)
	assert.Equal(t, "MessageBox", rec.Identifier)
	assert.Equal(t, 11, rec.Line)
	assert.Equal(t, 13, rec.Column)
	assert.Equal(t, rules.SyntaxStaticAccess, rec.Syntax)
	assert.Equal(t, `MessageBox.Show("x");`, rec.Snippet)

	assert.Empty(t, r.Detect(messageBoxResolved))
}

func TestDetect_RequiresBothNamespaces(t *testing.T) {
	r := newResolver(t, rules.CategoryMessageBox)

	src := "using System.Windows.Forms;\n\nclass A { void M() { MessageBox.Show(\"x\"); } }\n"
	assert.Empty(t, r.Detect(src))
	out, aliases := r.Resolve(src)
	assert.Equal(t, src, out)
	assert.Nil(t, aliases)
	assert.False(t, r.Applicable(src))
}

func TestDetect_ControlSyntaxPositions(t *testing.T) {
	r := newResolver(t, rules.CategoryControl)

	records := r.Detect(controlSource)
	got := make([]string, 0, len(records))
	for _, rec := range records {
		got = append(got, rec.Identifier+":"+string(rec.Syntax))
	}
	assert.Equal(t, []string{
		"UserControl:inheritance",
		"Button:declaration",
		"Button:constructor",
		"TextBox:generic-argument",
		"Label:array",
		"Button:type-test",
		"CheckBox:type-test",
		"ComboBox:typeof",
		"ListBox:cast",
	}, got)
}

func TestResolve_ControlIdempotentAndLiteralSafe(t *testing.T) {
	r := newResolver(t, rules.CategoryControl)

	out, aliases := r.Resolve(controlSource)
	assert.ElementsMatch(t, []string{
		"WpfButton", "WpfTextBox", "WpfComboBox", "WpfCheckBox",
		"WpfLabel", "WpfListBox", "WpfUserControl",
	}, aliases)

	assert.Contains(t, out, "using WpfButton = System.Windows.Controls.Button;\n")
	assert.Contains(t, out, "class Panel : WpfUserControl, IDisposable")
	assert.Contains(t, out, "private WpfButton ok = new WpfButton();")
	assert.Contains(t, out, "private List<WpfTextBox> boxes;")
	assert.Contains(t, out, "private WpfLabel[] labels;")
	assert.Contains(t, out, "var b = o as WpfButton;")
	assert.Contains(t, out, "if (o is WpfCheckBox) { }")
	assert.Contains(t, out, "typeof(WpfComboBox)")
	assert.Contains(t, out, "(WpfListBox)o")
	assert.Contains(t, out, `string s = "Button";`)
	assert.Contains(t, out, "// Button in a comment")
	assert.Contains(t, out, "System.Windows.Forms.Button.DefaultBackColor")

	again, aliases := r.Resolve(out)
	assert.Equal(t, out, again)
	assert.Empty(t, aliases)
}

func TestResolve_HolesTuplesAndComments(t *testing.T) {
	tests := []struct {
		name     string
		category rules.Category
		in       string
		want     string
	}{
		{
			name:     "interpolation hole",
			category: rules.CategoryMessageBox,
			in:       `var s = $"{MessageBox.Show("x")} MessageBox";`,
			want:     `var s = $"{WpfMessageBox.Show("x")} MessageBox";`,
		},
		{
			name:     "tuple element types",
			category: rules.CategoryControl,
			in:       `private (Button, int) pair; (int, Button) Pick() { return (1, Button); }`,
			want:     `private (WpfButton, int) pair; (int, WpfButton) Pick() { return (1, Button); }`,
		},
		{
			name:     "generic tuple",
			category: rules.CategoryControl,
			in:       `List<(Label, Button)> rows; Use(Label, Button);`,
			want:     `List<(WpfLabel, WpfButton)> rows; Use(Label, Button);`,
		},
		{
			name:     "comment after new",
			category: rules.CategoryControl,
			in: `var b = new /* ok */ Button(); var c = new // next line
    Button();`,
			want: `var b = new /* ok */ WpfButton(); var c = new // next line
    WpfButton();`,
		},
	}

	headers := map[rules.Category]string{
		rules.CategoryMessageBox: "using System.Windows;\nusing System.Windows.Forms;\n",
		rules.CategoryControl:    "using System.Windows.Controls;\nusing System.Windows.Forms;\n",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, tt.category)
			head := headers[tt.category]

			out, aliases := r.Resolve(head + "class A {\n" + tt.in + "\n}\n")
			require.NotEmpty(t, aliases)
			body := strings.TrimSuffix(out[strings.Index(out, "class A {\n")+len("class A {\n"):], "\n}\n")
			assert.Equal(t, tt.want, body)

			again, _ := r.Resolve(out)
			assert.Equal(t, out, again)
		})
	}
}

func TestResolve_IdempotentForEveryCategory(t *testing.T) {
	inputs := []string{messageBoxSource, controlSource, viewSource, dialogSource, fileDialogSource}
	for _, rule := range rules.Default() {
		t.Run(string(rule.Category), func(t *testing.T) {
			r := New(rule, fsops.NewRealFS(), nil, logging.Discard())
			for _, in := range inputs {
				once, _ := r.Resolve(in)
				twice, _ := r.Resolve(once)
				assert.Equal(t, once, twice)
			}
		})
	}
}

const viewSource = `using Autodesk.Revit.DB;
using System.Windows.Forms;

class V
{
    void M(Document doc, ListView list)
    {
        View v = doc.ActiveView;
        list.View = View.Details;
    }
}
`

func TestResolve_ViewSkipsStaticAccess(t *testing.T) {
	r := newResolver(t, rules.CategoryView)

	out, aliases := r.Resolve(viewSource)
	assert.Equal(t, []string{"RevitView"}, aliases)
	assert.Contains(t, out, "using RevitView = Autodesk.Revit.DB.View;\n")
	assert.Contains(t, out, "RevitView v = doc.ActiveView;")
	assert.Contains(t, out, "list.View = View.Details;")
}

const dialogSource = `using Autodesk.Revit.UI;
using Microsoft.WindowsAPICodePack.Dialogs;

class D
{
    TaskDialogResult Ask()
    {
        var d = new TaskDialog("Title");
        return d.Show();
    }
}
`

func TestResolve_Dialog(t *testing.T) {
	r := newResolver(t, rules.CategoryDialog)

	out, aliases := r.Resolve(dialogSource)
	assert.Equal(t, []string{"RevitTaskDialog", "RevitTaskDialogResult"}, aliases)
	assert.Contains(t, out, "RevitTaskDialogResult Ask()")
	assert.Contains(t, out, `new RevitTaskDialog("Title")`)
	assert.True(t, strings.Index(out, "using RevitTaskDialog =") < strings.Index(out, "using RevitTaskDialogResult ="))
}

const fileDialogSource = "using Microsoft.Win32;\r\nusing System.Windows.Forms;\r\n\r\nclass F\r\n{\r\n    void M()\r\n    {\r\n        var dlg = new OpenFileDialog();\r\n    }\r\n}\r\n"

func TestResolve_PreservesCRLF(t *testing.T) {
	r := newResolver(t, rules.CategoryFileDialog)

	out, _ := r.Resolve(fileDialogSource)
	assert.Contains(t, out, "using System.Windows.Forms;\r\nusing Win32OpenFileDialog = Microsoft.Win32.OpenFileDialog;\r\n\r\n")
	assert.Contains(t, out, "new Win32OpenFileDialog();")
}

func TestResolve_ExistingAliases(t *testing.T) {
	r := newResolver(t, rules.CategoryMessageBox)

	t.Run("short name already aliased", func(t *testing.T) {
		src := "using System.Windows;\nusing System.Windows.Forms;\nusing MessageBox = System.Windows.MessageBox;\n\nclass A { void M() { MessageBox.Show(\"x\"); } }\n"
		assert.Empty(t, r.Detect(src))
		out, _ := r.Resolve(src)
		assert.Equal(t, src, out)
	})

	t.Run("alias bound to another type", func(t *testing.T) {
		src := "using System.Windows;\nusing System.Windows.Forms;\nusing WpfMessageBox = Other.MessageBox;\n\nclass A { void M() { MessageBox.Show(\"x\"); } }\n"
		assert.Empty(t, r.Detect(src))
		out, _ := r.Resolve(src)
		assert.Equal(t, src, out)
	})

	t.Run("alias present but references unresolved", func(t *testing.T) {
		src := "using System.Windows;\nusing System.Windows.Forms;\nusing WpfMessageBox = System.Windows.MessageBox;\n\nclass A { void M() { MessageBox.Show(\"x\"); } }\n"
		out, aliases := r.Resolve(src)
		assert.Empty(t, aliases)
		assert.Equal(t, strings.Replace(src, "MessageBox.Show", "WpfMessageBox.Show", 1), out)
	})
}

func TestNewSet(t *testing.T) {
	set := NewSet(rules.Default(), fsops.NewRealFS(), nil, nil)
	require.Len(t, set, len(rules.Order))
	for i, r := range set {
		assert.Equal(t, rules.Order[i], r.Category())
	}
}
