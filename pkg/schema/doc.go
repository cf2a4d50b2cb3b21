// Package schema declares the typed arguments of a console command and parses tokenized
// arguments into them.
//
// Positional arguments are declared with Arg, OptionalArg and RestArgs. Flags are declared on
// the pflag set returned by Spec.Flags:
//
//	type LogCommand struct {
//	    Msg    string
//	    Num    *int
//	    Shout  bool
//	}
//
//	func (c *LogCommand) Define(s *schema.Spec) {
//	    s.Short = "Prints a message"
//	    schema.Arg(s, &c.Msg, "msg", "Message to print")
//	    schema.OptionalArg(s, &c.Num, "num", "Number of times to print the message")
//	    s.Flags().BoolVarP(&c.Shout, "shout", "s", false, "Print in upper case")
//	}
//
// Values are converted with spf13/cast, so "3", "3.0" and "0x3" all satisfy an int argument.
// Parse failures are reported as *Error values whose Render method prints an error with a usage
// hint, and -h/--help is reported as an Error of KindHelp carrying the full usage text.
package schema
