package diag_test

import (
	"bytes"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dpsim/diag"
)

var _ = Describe("Reporter", func() {
	var (
		out *bytes.Buffer
		r   *diag.Reporter
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		r = diag.NewReporter(diag.NewLogger(out, logrus.WarnLevel), true)
	})

	It("should log warnings with kind and line fields", func() {
		Expect(r.Warn(diag.KindStaleHazard, 12, 3, "stale %s", "I0")).To(BeTrue())

		Expect(out.String()).To(ContainSubstring("stale I0"))
		Expect(out.String()).To(ContainSubstring("kind=stale-hazard"))
		Expect(out.String()).To(ContainSubstring("line=12"))
		Expect(r.Warnings()).To(HaveLen(1))
	})

	It("should coalesce repeated warnings at the same line", func() {
		r.Warn(diag.KindUndefinedRead, 7, 1, "first")
		Expect(r.Warn(diag.KindUndefinedRead, 7, 2, "second")).To(BeFalse())
		r.Warn(diag.KindUndefinedRead, 8, 3, "other line")
		r.Warn(diag.KindStaleHazard, 7, 4, "other kind")

		Expect(r.Warnings()).To(HaveLen(3))
		Expect(r.Suppressed()).To(Equal(1))
		Expect(r.Count(diag.KindUndefinedRead)).To(Equal(2))
	})

	It("should keep every warning when coalescing is off", func() {
		r = diag.NewReporter(nil, false)
		r.Warn(diag.KindUndefinedRead, 7, 1, "a")
		r.Warn(diag.KindUndefinedRead, 7, 2, "b")

		Expect(r.Warnings()).To(HaveLen(2))
		Expect(r.Suppressed()).To(BeZero())
	})

	It("should build fatal errors that unwrap to their sentinel", func() {
		e := r.Fatal(diag.KindAddressRange, 3, 9, "<dump>", "address %#x", 0x10000)

		var err error = e
		Expect(errors.Is(err, diag.ErrAddressRange)).To(BeTrue())
		Expect(errors.Is(err, diag.ErrUnaligned)).To(BeFalse())
		Expect(e.Dump).To(Equal("<dump>"))
		Expect(e.Severity).To(Equal(diag.SeverityError))
		Expect(err.Error()).To(ContainSubstring("address 0x10000"))
		Expect(out.String()).To(ContainSubstring("level=error"))
	})

	It("should start over after reset", func() {
		r.Warn(diag.KindPartialWrite, 1, 0, "x")
		r.Reset()
		Expect(r.Warnings()).To(BeEmpty())
		Expect(r.Warn(diag.KindPartialWrite, 1, 0, "x")).To(BeTrue())
	})

	It("should map wrapped errors back to their kind", func() {
		err := fmt.Errorf("%w: R40", diag.ErrInvalidRegister)

		kind, ok := diag.KindOf(err)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(diag.KindInvalidRegister))

		_, ok = diag.KindOf(errors.New("unrelated"))
		Expect(ok).To(BeFalse())
	})
})
