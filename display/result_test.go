// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"testing"

	C "gopkg.in/check.v1"
)

type resultSuite struct{}

func init() {
	C.Suite(&resultSuite{})
}

func Test(t *testing.T) {
	C.TestingT(t)
}

func (s *resultSuite) TestResultCodes(c *C.C) {
	c.Check(int(ResultSuccess), C.Equals, 0)
	c.Check(int(ResultConfigParseFail), C.Equals, 700)
	c.Check(int(ResultTopologyFail), C.Equals, 701)
	c.Check(int(ResultPrimaryDisplayFail), C.Equals, 702)
	c.Check(int(ResultModesFail), C.Equals, 703)
	c.Check(int(ResultHDRStatesFail), C.Equals, 704)
	c.Check(int(ResultFileSaveFail), C.Equals, 705)
	c.Check(int(ResultRevertFail), C.Equals, 706)
}

func (s *resultSuite) TestResultCodeString(c *C.C) {
	c.Check(ResultSuccess.String(), C.Equals, "success")
	c.Check(ResultRevertFail.String(), C.Equals, "revert_fail")
	c.Check(ApplyResultCode(999).String(), C.Equals, "unknown(999)")
}

func (s *resultSuite) TestApplyResultOK(c *C.C) {
	c.Check(applyResult(ResultSuccess).OK(), C.Equals, true)
	c.Check(applyResult(ResultTopologyFail).OK(), C.Equals, false)
	c.Check(applyResult(ResultHDRStatesFail).Error(), C.Equals, "hdr_states_fail")
}
