package otp_test

import (
	"opsconsole/internal/otp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Widget", func() {
	var (
		widget  *otp.Widget
		changes []string
	)

	BeforeEach(func() {
		changes = nil
		var err error
		widget, err = otp.New(6, otp.WithOnChange(func(code string) {
			changes = append(changes, code)
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject a non-positive length", func() {
		_, err := otp.New(0)
		Expect(err).To(MatchError(otp.ErrInvalidLength))
	})

	Context("Input", func() {
		It("should store a digit, advance focus and emit the code", func() {
			widget.Input(0, "4")

			Expect(widget.Cells()[0]).To(Equal("4"))
			Expect(widget.Focus()).To(Equal(1))
			Expect(changes).To(Equal([]string{"4"}))
		})

		It("should ignore non-digit input", func() {
			widget.Input(0, "a")

			Expect(widget.Value()).To(BeEmpty())
			Expect(widget.Focus()).To(Equal(0))
			Expect(changes).To(BeEmpty())
		})

		It("should keep the last character typed into a filled cell", func() {
			widget.Input(0, "4")
			widget.Input(0, "47")

			Expect(widget.Cells()[0]).To(Equal("7"))
		})

		It("should keep focus on the last cell when it is filled", func() {
			widget.Input(5, "9")

			Expect(widget.Focus()).To(Equal(5))
		})
	})

	Context("Backspace", func() {
		It("should clear a filled cell in place", func() {
			widget.Input(0, "1")
			widget.Input(1, "2")

			widget.Backspace(1)

			Expect(widget.Value()).To(Equal("1"))
			Expect(widget.Focus()).To(Equal(1))
		})

		It("should move focus back from an empty cell", func() {
			widget.Input(0, "1")
			widget.Input(1, "2")

			widget.Backspace(2)

			Expect(widget.Focus()).To(Equal(1))
			Expect(widget.Value()).To(Equal("1"))
		})

		It("should stay on the first cell", func() {
			widget.Backspace(0)

			Expect(widget.Focus()).To(Equal(0))
			Expect(changes).To(BeEmpty())
		})
	})

	Context("Paste", func() {
		It("should fill every cell and focus the last one for a full code", func() {
			widget.Paste("123456")

			Expect(widget.Cells()).To(Equal([]string{"1", "2", "3", "4", "5", "6"}))
			Expect(widget.Focus()).To(Equal(5))
			Expect(widget.Complete()).To(BeTrue())
			Expect(changes).To(Equal([]string{"123456"}))
		})

		It("should fill from the left and focus the first empty cell for a short code", func() {
			widget.Paste("12")

			Expect(widget.Cells()).To(Equal([]string{"1", "2", "", "", "", ""}))
			Expect(widget.Focus()).To(Equal(2))
			Expect(widget.Complete()).To(BeFalse())
		})

		It("should drop non-digits and extra digits", func() {
			widget.Paste("12-34 56 78")

			Expect(widget.Value()).To(Equal("123456"))
		})

		It("should replace a previous code", func() {
			widget.Paste("999999")
			widget.Paste("12")

			Expect(widget.Value()).To(Equal("12"))
		})

		It("should ignore text without digits", func() {
			widget.Paste("abc")

			Expect(changes).To(BeEmpty())
		})
	})

	It("should clear every cell", func() {
		widget.Paste("123")

		widget.Clear()

		Expect(widget.Value()).To(BeEmpty())
		Expect(widget.Focus()).To(Equal(0))
		Expect(changes).To(Equal([]string{"123", ""}))
	})
})
