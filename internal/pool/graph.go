package pool

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vk/sotgo/internal/signal"
)

// WriteGraph renders the entities and the plugs between their signals as a
// graphviz digraph. Tasks are drawn in their own cluster.
func (p *Pool) WriteGraph(w io.Writer, name string) error {
	objs := p.Objects()

	owner := make(map[signal.Port]string)
	for _, obj := range objs {
		for _, sig := range obj.Signals() {
			owner[sig] = obj.Name()
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %q {\n", name)
	fmt.Fprintf(bw, "\tgraph [ label=%q bgcolor=white rankdir=LR ]\n", name)
	fmt.Fprintln(bw, "\tnode [ fontcolor=black color=black fillcolor=gold1 style=filled shape=box ]")

	fmt.Fprintln(bw, "\tsubgraph cluster_tasks {")
	fmt.Fprintln(bw, "\t\tcolor=blue label=\"Tasks\"")
	for _, obj := range objs {
		if strings.HasPrefix(obj.Class(), "Task") {
			fmt.Fprintf(bw, "\t\t%q [ label=%q fillcolor=magenta ]\n", obj.Name(), obj.Name())
		}
	}
	fmt.Fprintln(bw, "\t}")

	for _, obj := range objs {
		if !strings.HasPrefix(obj.Class(), "Task") {
			fmt.Fprintf(bw, "\t%q [ label=\"%s\\n(%s)\" ]\n", obj.Name(), obj.Name(), obj.Class())
		}
	}

	for _, obj := range objs {
		for _, sig := range obj.Signals() {
			for _, up := range sig.Upstream() {
				from, ok := owner[up]
				if !ok {
					from = up.Name()
				}
				if from == obj.Name() {
					continue
				}
				fmt.Fprintf(bw, "\t%q -> %q [ label=%q ]\n", from, obj.Name(), shortName(up.Name())+" → "+shortName(sig.Name()))
			}
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func shortName(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
