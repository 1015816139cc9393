/*
Package pattern compiles structural queries, the "address" half of every tsed
command, into an immutable Pattern.

# Overview

A structural query describes the shape of a syntax tree fragment instead of a
run of characters. The syntax is the S-expression query language popularized
by tree-sitter, so queries written for tree-sitter grammars work unchanged:

	(call_expression
	  function: (identifier) @fn
	  arguments: (argument_list (_) @arg)
	  (#eq? @fn "puts"))

The package only parses and validates the query. Matching happens later,
either inside the grammar's own query engine or in syntax.MatchTree.

# Items

  - (type child...): a named node of the given grammar type.
    (_) matches any named node.

  - "text": an anonymous node (a token such as "(" or "return").

  - _: any node, named or anonymous.

  - [item...]: an alternation; the first alternative that matches wins.

Every item may be followed by a quantifier (?, * or +) and by any number of
captures (@name). Inside a named node a child may carry a field label
(field: item), the node may forbid a field (!field), and "." anchors a child
to the first named child, to its previous sibling, or, when written last, to
the last named child.

# Predicates

Predicates are parenthesized clauses starting with '#'. They are stored as
descriptors and evaluated per match, once the captured text is known:

	(#eq? @a "text")        (#not-eq? @a @b)
	(#match? @a "^re$")     (#not-match? @a "re")
	(#any-of? @a "x" "y")   (#not-any-of? @a "z")

Unknown predicates, wrong operand counts, invalid regular expressions and
references to captures the query never declares are rejected with a
PredicateError.

# Rendering

Pattern.Query renders the structural part back into query text, dropping
predicates and tagging the top-level item with the reserved capture
RootCapture. Grammars that execute queries natively use the rendered text and
recover the match root from that capture.
*/
package pattern
