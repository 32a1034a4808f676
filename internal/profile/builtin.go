package profile

var cFamilyComments = []BlockComment{{Open: "/*", Close: "*/"}}

func builtinProfiles() []*Profile {
	return []*Profile{
		{
			Name:                     "java",
			Extensions:               []string{".java"},
			AnnotationStyle:          AnnotationPrefix,
			AnnotationPrefix:         "@",
			SpaceAfterPrefix:         true,
			QualifiedAnnotationNames: true,
			ArgumentsAcrossNewline:   true,
			AnnotationExclusions:     []string{"interface"},
			GenericBrackets:          true,
			StringDelimiters:         []string{`"""`, `"`, `'`},
			LineComments:             []string{"//"},
			BlockComments:            cFamilyComments,
			Terminators:              []string{";"},
			BodyOpeners:              []string{"{"},
			ParameterStyle:           ParameterC,
			Modifiers: []string{
				"public", "protected", "private", "static", "final", "abstract",
				"synchronized", "native", "transient", "volatile", "strictfp", "default",
				"sealed", "non-sealed",
			},
			TypeKeywords: []string{
				"boolean", "byte", "char", "short", "int", "long", "float", "double", "void", "var",
			},
			DeclarationKeywords: []string{"class", "interface", "@interface", "enum", "record"},
		},
		{
			Name:                     "csharp",
			Aliases:                  []string{"c#", "cs"},
			Extensions:               []string{".cs"},
			AnnotationStyle:          AnnotationBracket,
			QualifiedAnnotationNames: true,
			ArgumentsAcrossNewline:   true,
			GenericBrackets:          true,
			StringDelimiters:         []string{`"`, `'`},
			LineComments:             []string{"//"},
			BlockComments:            cFamilyComments,
			Terminators:              []string{";"},
			BodyOpeners:              []string{"{", "=>"},
			ParameterStyle:           ParameterC,
			Modifiers: []string{
				"public", "protected", "private", "internal", "static", "readonly", "virtual",
				"override", "abstract", "sealed", "async", "extern", "unsafe", "new", "partial",
				"ref", "out", "in", "params", "this",
			},
			TypeKeywords: []string{
				"bool", "byte", "sbyte", "char", "decimal", "double", "float", "int", "uint", "long",
				"ulong", "short", "ushort", "object", "string", "void", "dynamic",
			},
			DeclarationKeywords: []string{"class", "interface", "struct", "enum", "record", "namespace"},
			IndexerKeywords:     []string{"this"},
		},
		{
			Name:             "c",
			Aliases:          []string{"cpp", "c++"},
			Extensions:       []string{".c", ".h", ".cpp", ".cc", ".cxx", ".hpp", ".hxx"},
			AnnotationStyle:  AnnotationNone,
			GenericBrackets:  true,
			StringDelimiters: []string{`"`, `'`},
			LineComments:     []string{"//"},
			BlockComments:    cFamilyComments,
			Terminators:      []string{";"},
			BodyOpeners:      []string{"{"},
			ParameterStyle:   ParameterC,
			Modifiers: []string{
				"static", "inline", "extern", "virtual", "explicit", "const", "volatile",
				"register", "constexpr", "friend",
			},
			TypeKeywords: []string{
				"void", "char", "short", "int", "long", "float", "double", "signed", "unsigned",
				"bool", "size_t", "wchar_t",
			},
			DeclarationKeywords:    []string{"struct", "union", "enum", "class", "namespace"},
			AllowUnnamedParameters: true,
		},
		{
			Name:                     "python",
			Aliases:                  []string{"py"},
			Extensions:               []string{".py", ".pyi"},
			AnnotationStyle:          AnnotationPrefix,
			AnnotationPrefix:         "@",
			SpaceAfterPrefix:         true,
			QualifiedAnnotationNames: true,
			StringDelimiters:         []string{`"""`, `'''`, `"`, `'`},
			LineComments:             []string{"#"},
			BodyOpeners:              []string{":"},
			ParameterStyle:           ParameterPascal,
			ReturnTypeSeparators:     []string{"->"},
			Modifiers:                []string{"async", "def", "class"},
			DeclarationKeywords:      []string{"class"},
			ParenthesizedBases:       true,
			AllowUnnamedParameters:   true,
			AllowTrailingComma:       true,
		},
		{
			Name:                     "typescript",
			Aliases:                  []string{"ts", "javascript", "js"},
			Extensions:               []string{".ts", ".tsx", ".js", ".jsx", ".mjs"},
			AnnotationStyle:          AnnotationPrefix,
			AnnotationPrefix:         "@",
			QualifiedAnnotationNames: true,
			GenericBrackets:          true,
			StringDelimiters:         []string{"`", `"`, `'`},
			LineComments:             []string{"//"},
			BlockComments:            cFamilyComments,
			Terminators:              []string{";"},
			BodyOpeners:              []string{"{"},
			ParameterStyle:           ParameterPascal,
			ReturnTypeSeparators:     []string{":"},
			Modifiers: []string{
				"export", "default", "declare", "async", "function", "public", "private",
				"protected", "static", "readonly", "abstract", "override", "get", "set",
			},
			DeclarationKeywords: []string{"class", "interface", "enum", "type", "namespace"},
			AllowTrailingComma:  true,
		},
		{
			Name:                     "kotlin",
			Aliases:                  []string{"kt"},
			Extensions:               []string{".kt", ".kts"},
			AnnotationStyle:          AnnotationPrefix,
			AnnotationPrefix:         "@",
			QualifiedAnnotationNames: true,
			ArgumentsAcrossNewline:   true,
			AnnotationTargets: []string{
				"file", "property", "field", "get", "set", "receiver", "param", "setparam", "delegate",
			},
			GenericBrackets:      true,
			StringDelimiters:     []string{`"""`, `"`, `'`},
			LineComments:         []string{"//"},
			BlockComments:        cFamilyComments,
			Terminators:          []string{";"},
			BodyOpeners:          []string{"{", "="},
			ParameterStyle:       ParameterPascal,
			ReturnTypeSeparators: []string{":"},
			Modifiers: []string{
				"fun", "public", "private", "protected", "internal", "open", "override", "abstract",
				"final", "suspend", "inline", "operator", "infix", "tailrec", "external", "vararg",
				"noinline", "crossinline", "val", "var",
			},
			DeclarationKeywords: []string{"class", "interface", "object"},
			AllowTrailingComma:  true,
		},
	}
}
