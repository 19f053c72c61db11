package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `// header comment mentions MessageBox
using System;
using System.Windows;
using Forms = System.Windows.Forms;
using static System.Math;
global using System.Linq;

namespace Demo
{
    using System.Text;

    public class Window1
    {
        private string a = "MessageBox.Show(\"nested\")";
        private string b = @"verbatim ""MessageBox"" text";
        private char c = '\'';
        /* MessageBox in block */
        public void Run()
        {
            MessageBox.Show("x");
        }
    }
}
`

func TestScan_TopLevelUsings(t *testing.T) {
	src := Scan(sample)

	require.Len(t, src.Usings, 5, "nested using inside namespace block is not top-level")

	assert.Equal(t, "System", src.Usings[0].Target)
	assert.Equal(t, "Forms", src.Usings[2].Alias)
	assert.Equal(t, "System.Windows.Forms", src.Usings[2].Target)
	assert.True(t, src.Usings[3].Static)
	assert.True(t, src.Usings[4].Global)
	assert.True(t, src.Usings[4].Terminated)

	assert.True(t, src.Imports("System.Windows"))
	assert.False(t, src.Imports("System.Windows.Forms"), "alias directive is not a namespace import")
	assert.True(t, src.Imports("System.Linq"))
	assert.False(t, src.Imports("System.Text"))

	target, ok := src.AliasTarget("Forms")
	assert.True(t, ok)
	assert.Equal(t, "System.Windows.Forms", target)

	end, ok := src.ImportEnd()
	require.True(t, ok)
	assert.Equal(t, "\nnamespace Demo", sample[end:end+15])
}

func TestScan_OccurrencesSkipLiterals(t *testing.T) {
	src := Scan(sample)
	offs := src.Occurrences("MessageBox")

	require.Len(t, offs, 1, "only the call in Run() is code")
	line, col := src.Position(offs[0])
	assert.Equal(t, 20, line)
	assert.Equal(t, 13, col)
	assert.Equal(t, `            MessageBox.Show("x");`, src.LineAt(offs[0]))
}

func TestScan_WholeWordsOnly(t *testing.T) {
	src := Scan("var a = new WpfMessageBox(); var b = MessageBoxes; var c = @MessageBox;")
	assert.Empty(t, src.Occurrences("MessageBox"))
}

func TestScan_StringForms(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "interpolated", text: `var s = $"View {x} here"; View v;`},
		{name: "interpolated escaped braces", text: `var s = $"{{View}} here"; View v;`},
		{name: "verbatim interpolated", text: `var s = $@"{x} ""View"""; View v;`},
		{name: "interpolated verbatim", text: `var s = @$"View{x}"; View v;`},
		{name: "raw", text: `var s = """View "quoted" View"""; View v;`},
		{name: "raw interpolated", text: `var s = $$"""{View} {{x}} View"""; View v;`},
		{name: "format specifier", text: `var s = $"{x:View}"; View v;`},
		{name: "escaped quote", text: `var s = "a\"View\""; View v;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Scan(tt.text)
			offs := src.Occurrences("View")
			require.Len(t, offs, 1)
			assert.Equal(t, "View v;", tt.text[offs[0]:offs[0]+7])
		})
	}
}

func TestScan_InterpolationHolesAreCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "call in hole",
			text: `var s = $"{MessageBox.Show("x")} MessageBox";`,
			want: []string{`MessageBox.Show("x")} MessageBox";`},
		},
		{
			name: "verbatim",
			text: `var s = $@"MessageBox ""{MessageBox.Show("x")}""";`,
			want: []string{`MessageBox.Show("x")}""";`},
		},
		{
			name: "raw",
			text: `var s = $$"""{MessageBox} {{MessageBox.Show("x")}}""";`,
			want: []string{`MessageBox.Show("x")}}""";`},
		},
		{
			name: "ternary and format",
			text: `var s = $"{(a ? MessageBox.A : MessageBox.B):MessageBox}";`,
			want: []string{`MessageBox.A : MessageBox.B):MessageBox}";`, `MessageBox.B):MessageBox}";`},
		},
		{
			name: "nested interpolation",
			text: `var s = $"{$"{MessageBox.X}MessageBox"}"; MessageBox.Y();`,
			want: []string{`MessageBox.X}MessageBox"}"; MessageBox.Y();`, `MessageBox.Y();`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Scan(tt.text)
			var got []string
			for _, off := range src.Occurrences("MessageBox") {
				got = append(got, tt.text[off:])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan_PreprocessorAndChars(t *testing.T) {
	text := "#region View\nusing System;\n#endregion\nclass A { char q = '\"'; View v; }\n"
	src := Scan(text)

	require.Len(t, src.Usings, 1)
	offs := src.Occurrences("View")
	require.Len(t, offs, 1)
	assert.Equal(t, "View v;", text[offs[0]:offs[0]+7])
}

func TestScan_NoUsings(t *testing.T) {
	src := Scan("class A { }")
	_, ok := src.ImportEnd()
	assert.False(t, ok)
	_, ok = src.LastUsing()
	assert.False(t, ok)
}

func TestScan_UsingStatementsAreNotDirectives(t *testing.T) {
	text := "using System;\nclass A { void M() { using var s = Open(); using (var t = Open()) { } } }\n"
	src := Scan(text)
	assert.Len(t, src.Usings, 1)
}

func TestScan_UnterminatedLastLine(t *testing.T) {
	src := Scan("using System.Windows;")
	require.Len(t, src.Usings, 1)
	assert.False(t, src.Usings[0].Terminated)
	end, _ := src.ImportEnd()
	assert.Equal(t, len("using System.Windows;"), end)
}

func TestNewline(t *testing.T) {
	assert.Equal(t, "\r\n", Scan("using A;\r\nclass B {}\r\n").Newline())
	assert.Equal(t, "\n", Scan("using A;\nclass B {}\n").Newline())
}

func TestCache(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	a := cache.Scan("using A;")
	assert.Same(t, a, cache.Scan("using A;"))
	cache.Scan("using B;")
	cache.Scan("using C;")
	assert.Equal(t, 2, cache.Len())

	var nilCache *Cache
	assert.NotNil(t, nilCache.Scan("using A;"))
	assert.Equal(t, 0, nilCache.Len())
}

func TestScan_ByteOrderMark(t *testing.T) {
	text := "\uFEFFusing System.Windows;\nclass A {}\n"
	src := Scan(text)

	assert.Equal(t, 3, src.BodyStart())
	require.Len(t, src.Usings, 1)
	assert.Equal(t, "System.Windows", src.Usings[0].Target)
	assert.Equal(t, 3, src.Usings[0].Start)
}
