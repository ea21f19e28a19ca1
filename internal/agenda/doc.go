// Package agenda turns TickTick task data into the views served by the tools:
// all tasks across projects, tasks due today and overdue tasks.
//
// Classification shifts every due date forward by one day (DayShift) before
// comparing it with the reference instant, since due dates stored by the
// service are observed one day early. Due-today compares UTC calendar days;
// overdue compares UTC calendar days for all-day tasks and instants for timed
// tasks. The timezone offset accepted by IsOverdue is currently not applied.
package agenda
