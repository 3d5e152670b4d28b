/*
Package config loads the user-level defaults file for mkpkg.

	            +-------------+
	            |  Defaults   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSON    |
	| Parser    | | Parser  | | Parser    |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Finds and parses ~/.mkpkg defaults (author, package manager, protocol, type)
- Validates every set value against the settings enums
- Applies defaults onto a fresh settings record without clobbering user input

🔄 Flow:
1. Locate picks the first matching file name in the home directory
2. Load dispatches on extension (a bare .mkpkg is sniffed YAML-then-HCL)
3. Validate rejects unknown fields and illegal enum values
4. Apply copies set defaults onto unset settings fields

📝 Design Philosophy:
Defaults are a convenience layer, never an authority: anything the user types
during the wizard wins, and a missing file is indistinguishable from an empty
one.
*/
package config
