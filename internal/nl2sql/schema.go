// Package nl2sql turns natural-language questions about the employee database
// into SQL statements and turns raw result rows back into conversational
// answers, using the chat-completion client for every round trip.
package nl2sql

// The employee schema is baked verbatim into every prompt. It is prompt
// configuration, not runtime state.
const schemaText = `1. Employees(EmployeeID, FirstName, LastName, Rank, Department, Position, ContactNumber, Email, DateOfJoining, Salary, LeaveBalance, EmergencyContact, CurrentTask)
2. EmployeeAddresses(AddressID, EmployeeID, AddressLine1, AddressLine2, City, State, PostalCode, Country)
3. EmployeeTasks(TaskID, EmployeeID, TaskDescription, AssignedDate, DueDate, Status)
4. EmployeeTrainings(TrainingID, EmployeeID, TrainingName, CompletionDate, CertificationIssued)`

const formattingRules = `Ensure that:
- All column names match the schema exactly.
- Only valid SQL syntax for CockroachDB is used.
- The query ends with a semicolon.
- The SQL query uses English column and table names even if the question is in Arabic.
- The result should join tables if needed to show meaningful information.`

const sqlExpertSystemPrompt = "You are an SQL expert and intelligent assistant."
