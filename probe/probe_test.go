// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// timeoutError mimics the net.Error a timed-out connect produces.
type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ = Describe("TCP prober", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("handles multiple stops", func() {
		prober, _ := New(1)
		for i := 0; i < 2; i++ {
			By(fmt.Sprintf("%d round", i+1))
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				prober.StopWait()
				close(done)
			}()
			Eventually(done).WithTimeout(1 * time.Second).Should(BeClosed())
		}
	})

	It("finds a really listening port open", NodeTimeout(30*time.Second), func(ctx context.Context) {
		listener := Successful(net.Listen("tcp", "127.0.0.1:0"))
		defer listener.Close()
		port := listener.Addr().(*net.TCPAddr).Port

		prober, verdicts := New(1)
		prober.Probe(ctx, "local.test", "127.0.0.1", port)
		Eventually(verdicts).WithTimeout(5 * time.Second).Should(Receive(
			Equal(Verdict{
				Domain:  "local.test",
				Address: "127.0.0.1",
				Port:    port,
				Open:    true,
			})))
		prober.StopWait()
		Eventually(verdicts).Should(BeClosed())
	})

	DescribeTable("classifies benign connect failures as closed",
		func(ctx context.Context, dialerr error) {
			dialer := func(network, address string, timeout time.Duration) (net.Conn, error) {
				return nil, dialerr
			}
			prober, verdicts := New(1, WithDialer(dialer))
			prober.Probe(ctx, "shut.test", "192.0.2.80", 80)
			var verdict Verdict
			Eventually(verdicts).WithTimeout(5 * time.Second).Should(Receive(&verdict))
			Expect(verdict.Open).To(BeFalse())
			Expect(verdict.Err).NotTo(HaveOccurred())
			prober.StopWait()
		},
		Entry("when the connection is refused", NodeTimeout(30*time.Second),
			&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}),
		Entry("when the host is unreachable", NodeTimeout(30*time.Second),
			&net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH}),
		Entry("when the connect times out", NodeTimeout(30*time.Second),
			timeoutError{}),
	)

	It("does not paper over other transport errors", NodeTimeout(30*time.Second), func(ctx context.Context) {
		kaboom := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EMFILE}
		dialer := func(network, address string, timeout time.Duration) (net.Conn, error) {
			return nil, kaboom
		}
		prober, verdicts := New(1, WithDialer(dialer))
		prober.Probe(ctx, "doomed.test", "192.0.2.80", 443)
		var verdict Verdict
		Eventually(verdicts).WithTimeout(5 * time.Second).Should(Receive(&verdict))
		Expect(verdict.Open).To(BeFalse())
		Expect(verdict.Err).To(HaveOccurred())
		Expect(errors.Is(verdict.Err, syscall.EMFILE)).To(BeTrue())
		prober.StopWait()
	})

	It("probes the address and port it was given", NodeTimeout(30*time.Second), func(ctx context.Context) {
		var dialed string
		dialer := func(network, address string, timeout time.Duration) (net.Conn, error) {
			dialed = network + "://" + address
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
		}
		prober, verdicts := New(1, WithDialer(dialer))
		prober.Probe(ctx, "addressed.test", "203.0.113.5", 443)
		Eventually(verdicts).WithTimeout(5 * time.Second).Should(Receive())
		Expect(dialed).To(Equal("tcp://203.0.113.5:443"))
		prober.StopWait()
	})

	It("streams verdicts for a batch of probes", NodeTimeout(30*time.Second), func(ctx context.Context) {
		dialer := func(network, address string, timeout time.Duration) (net.Conn, error) {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
		}
		prober, verdicts := New(3, WithDialer(dialer))
		const numprobes = 5
		for i := 0; i < numprobes; i++ {
			prober.Probe(ctx, fmt.Sprintf("batch-%d.test", i), "192.0.2.99", 80)
		}
		go prober.StopWait()
		seen := map[string]struct{}{}
		for verdict := range verdicts {
			seen[verdict.Domain] = struct{}{}
		}
		Expect(seen).To(HaveLen(numprobes))
	})

})
