package dvid

import (
	"fmt"
	"strings"

	. "github.com/janelia-flyem/go/gocheck"
)

type recordLogger struct {
	msgs []string
}

func (r *recordLogger) add(level, format string, args ...interface{}) {
	r.msgs = append(r.msgs, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordLogger) Debugf(format string, args ...interface{})    { r.add("DEBUG", format, args...) }
func (r *recordLogger) Infof(format string, args ...interface{})     { r.add("INFO", format, args...) }
func (r *recordLogger) Warningf(format string, args ...interface{})  { r.add("WARNING", format, args...) }
func (r *recordLogger) Criticalf(format string, args ...interface{}) { r.add("CRITICAL", format, args...) }
func (r *recordLogger) Shutdown()                                    {}

type LogSuite struct {
	saved     Logger
	savedMode ModeFlag
	rec       *recordLogger
}

var _ = Suite(&LogSuite{})

func (s *LogSuite) SetUpTest(c *C) {
	s.saved, s.savedMode = logger, mode
	s.rec = &recordLogger{}
	logger = s.rec
}

func (s *LogSuite) TearDownTest(c *C) {
	logger, mode = s.saved, s.savedMode
}

func (s *LogSuite) TestLevels(c *C) {
	SetLogMode(ModeFromString("warning"))
	Debugf("d")
	Infof("i")
	Warningf("w")
	Criticalf("c")
	c.Assert(s.rec.msgs, DeepEquals, []string{"WARNING w", "CRITICAL c"})

	s.rec.msgs = nil
	SetLogMode(ModeFromString("silent"))
	Criticalf("c")
	c.Assert(s.rec.msgs, HasLen, 0)

	c.Assert(ModeFromString("debug"), Equals, DebugMode)
	c.Assert(ModeFromString(""), Equals, InfoMode)
	c.Assert(ModeFromString("bogus"), Equals, InfoMode)
}

func (s *LogSuite) TestTimeLog(c *C) {
	SetLogMode(InfoMode)
	timedLog := NewTimeLog()
	timedLog.Debugf("hidden")
	timedLog.Infof("merged %d regions", 3)
	c.Assert(s.rec.msgs, HasLen, 1)
	c.Assert(strings.HasPrefix(s.rec.msgs[0], "INFO merged 3 regions: "), Equals, true)
}
