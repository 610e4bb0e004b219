package demo

import (
	"fmt"
	"io"

	"github.com/wippyai/bindkit/hooks"
	"github.com/wippyai/bindkit/ownership"
)

func formatDouble(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Scenario drives the demo bindings in a deterministic order, writing
// one line per step. The CLI demo command streams it to stdout; the
// golden test pins the exact output.
func Scenario(w io.Writer) error {
	b, err := Build()
	if err != nil {
		return err
	}
	rec := hooks.NewRecorder()
	b.Arena.Subscribe(rec)
	defer b.Arena.Unsubscribe(rec)
	ad := b.Adapter

	// Reference counting on a tracked object.
	obj, err := ad.Construct("Tracked", "alpha")
	if err != nil {
		return err
	}
	tracked := obj.(ownership.Ref)
	out, err := ad.Invoke("describe", tracked)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tracked: count=%d describe=%s\n", tracked.Count(), out)

	clone, err := tracked.Clone()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tracked: clone count=%d\n", tracked.Count())
	if err := clone.Release(); err != nil {
		return err
	}
	fmt.Fprintf(w, "tracked: release count=%d\n", tracked.Count())

	cp, err := b.Arena.CopyRef(tracked)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tracked: copy count=%d original=%d\n", cp.Count(), tracked.Count())

	// The same handle bound under each access discipline.
	for _, name := range []string{
		"print_tracked_ptr", "print_tracked_copy",
		"print_tracked_ref", "print_tracked_handle",
	} {
		out, err = ad.Invoke(name, tracked)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "tracked: %s = %s\n", name, out)
	}

	// Integer construction goes through the int64 whitelist rule.
	obj, err = ad.Construct("Tracked", int64(7))
	if err != nil {
		return err
	}
	fromInt := obj.(ownership.Ref)
	out, err = ad.Invoke("describe", fromInt)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tracked: construct_from_int describe=%s\n", out)

	// Factories wrap their results under the type's strategy.
	obj, err = ad.Invoke("make_tracked", "beta")
	if err != nil {
		return err
	}
	made := obj.(ownership.Ref)
	out, err = ad.Invoke("describe", made)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "factory: make_tracked count=%d describe=%s\n", made.Count(), out)

	obj, err = ad.Invoke("make_box", 16.0)
	if err != nil {
		return err
	}
	mbox := obj.(ownership.Shared)
	out, err = ad.Invoke("print_double", mbox)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "factory: make_box(16) print_double = %s\n", out)

	// Box converts to float64 through its square-root rule.
	obj, err = ad.Construct("Box", 9.0)
	if err != nil {
		return err
	}
	box := obj.(ownership.Shared)
	out, err = ad.Invoke("print_double", box)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "box: print_double(Box(9)) = %s\n", out)

	// SelfBox hands out shares in its own group and converts to Box.
	obj, err = ad.Construct("SelfBox", 2.0)
	if err != nil {
		return err
	}
	self := obj.(ownership.Shared)
	share, err := self.Value().(*SelfBox).Self()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "selfbox: share count=%d\n", self.Count())
	if err := share.Release(); err != nil {
		return err
	}
	out, err = ad.Invoke("box_value", self)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "selfbox: box_value(SelfBox(2)) = %s\n", formatDouble(out.(float64)))

	// Dispatch chain: base-typed rules measure through the dynamic type.
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		obj, err = ad.Construct(name)
		if err != nil {
			return err
		}
		ref := obj.(ownership.Ref)
		out, err = ad.Invoke("print_double", ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "dispatch: print_double(%s) = %s\n", name, out)
		if name == "Gamma" {
			out, err = ad.Invoke("print_string", ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "dispatch: print_string(%s) = %s\n", name, out)
		}
		if err := ref.Release(); err != nil {
			return err
		}
	}

	for _, release := range []func() error{
		tracked.Release, cp.Release, fromInt.Release, made.Release,
		mbox.Release, box.Release, self.Release,
	} {
		if err := release(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "events: destroyed=%d live=%d\n",
		rec.CountOf(ownership.EventDestroyed), b.Arena.Len())
	return nil
}
