package jobs

import "github.com/cuongbtq/scanhub/internal/params"

var (
	// LFIOS are the operating systems an LFI test can target
	LFIOS = params.Enum("unix", "windows")

	// LFIFilterBypass are the LFI filter bypass techniques
	LFIFilterBypass = params.Enum("null_byte", "double_escape", "base64", "rot13", "zlib")

	// RFIFilterBypass are the RFI filter bypass techniques
	RFIFilterBypass = params.Enum("null_byte", "double_encode")

	// SSTIEscape are the template expression escapes tried by SSTI tests
	SSTIEscape = params.Enum(
		"double_curly_braces",
		"dollar_curly_braces",
		"dollar_double_curly_braces",
		"pound_curly_braces",
		"angle_brackets_percent",
	)
)

// VulnsParams is the schema for vulnerability scan jobs
var VulnsParams = params.NewSchema(
	params.Required("url", params.Format(siteURLRegexp, "url must be a valid http:// or https:// URL")),

	params.Optional("lfi", params.Hash(params.NewSchema(
		params.Optional("os", LFIOS),
		params.Optional("depth", params.Integer),
		params.Optional("filter_bypass", LFIFilterBypass),
	))),
	params.Optional("rfi", params.Hash(params.NewSchema(
		params.Optional("filter_bypass", RFIFilterBypass),
		params.Optional("test_script_url", params.String),
	))),
	params.Optional("sqli", params.Hash(params.NewSchema(
		params.Optional("escape_quote", params.Bool),
		params.Optional("escape_parens", params.Bool),
		params.Optional("terminate", params.Bool),
	))),
	params.Optional("ssti", params.Hash(params.NewSchema(
		params.Optional("escape", SSTIEscape),
	))),
	params.Optional("command_injection", params.Hash(params.NewSchema(
		params.Optional("escape_quote", params.String),
		params.Optional("escape_operator", params.String),
		params.Optional("terminate", params.String),
	))),
	params.Optional("open_redirect", params.Hash(params.NewSchema(
		params.Optional("test_url", params.String),
	))),
)
